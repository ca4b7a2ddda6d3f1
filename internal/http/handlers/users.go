package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const StatisticsCacheKey = "stats:users_by_role"

type UsersStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, filter user.ListUsersFilter) ([]user.User, int, error)
	UpdateStatus(ctx context.Context, id string, active bool) (user.User, error)
	CountByRole(ctx context.Context) ([]user.RoleCount, error)
}

type UsersHandler struct {
	store UsersStore
	stats cache.Store
	log   *slog.Logger
}

// stats may be nil when statistics caching is disabled.
func NewUsersHandler(store UsersStore, stats cache.Store, log *slog.Logger) *UsersHandler {
	if stats == nil {
		stats = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &UsersHandler{store: store, stats: stats, log: log}
}

type ListUsersResponse struct {
	Users []user.User `json:"users"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

type UpdateStatusResponse struct {
	Message string    `json:"message"`
	User    user.User `json:"user"`
}

// GET /users?role=&country=&page=&limit=
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	filter, details := parseListUsersFilter(ctx)
	if details != nil {
		RespondBadRequest(ctx, "Invalid query parameters", details)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	users, total, err := h.store.List(cctx, filter)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list users failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, ListUsersResponse{
		Users: users,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

func parseListUsersFilter(ctx *gin.Context) (user.ListUsersFilter, []FieldError) {
	var filter user.ListUsersFilter
	var fields []FieldError

	if raw := strings.TrimSpace(ctx.Query("role")); raw != "" {
		role, err := user.ParseRole(raw)
		if err != nil {
			fields = append(fields, FieldError{Field: "role", Rule: "user_role", Message: validationMessage("user_role", "")})
		} else {
			filter.Role = &role
		}
	}

	if raw := strings.TrimSpace(ctx.Query("country")); raw != "" {
		filter.Country = &raw
	}

	page, ok := parseNonNegativeInt(ctx.Query("page"))
	if !ok {
		fields = append(fields, FieldError{Field: "page", Rule: "min", Param: "0", Message: "must be a non-negative integer"})
	}

	limit, ok := parseNonNegativeInt(ctx.Query("limit"))
	if !ok {
		fields = append(fields, FieldError{Field: "limit", Rule: "min", Param: "0", Message: "must be a non-negative integer"})
	}

	if len(fields) > 0 {
		return user.ListUsersFilter{}, fields
	}

	filter.Page, filter.Limit = user.NormalizePage(page, limit)

	if !user.PageInRange(filter.Page, filter.Limit) {
		return user.ListUsersFilter{}, []FieldError{{Field: "page", Rule: "max", Message: "is too large"}}
	}

	return filter, nil
}

// empty means "use the default"
func parseNonNegativeInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

// PATCH /users/:id
func (h *UsersHandler) UpdateStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequestCode(ctx, "invalid_id", "Invalid user id")
		return
	}

	var req user.UpdateStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			RespondBadRequestCode(ctx, "invalid_status", "Invalid status value")
			return
		}

		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))
		return
	}

	active, err := user.ParseStatus(req.Status)
	if err != nil {
		RespondBadRequestCode(ctx, "invalid_status", "Invalid status value")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	updated, err := h.store.UpdateStatus(cctx, id, active)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "update user status failed", "err", err, "request_id", requestIDFrom(ctx), "user_id", id)
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, UpdateStatusResponse{
		Message: "User status updated successfully",
		User:    updated,
	})
}

// GET /user-data
func (h *UsersHandler) UserData(ctx *gin.Context) {
	userID, ok := actorctx.UserIDFrom(ctx.Request.Context())
	if !ok {
		RespondError(ctx, http.StatusForbidden, "access_denied", "Access denied", nil)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.store.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "load user data failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Internal server error")
		return
	}

	ctx.JSON(http.StatusOK, u.Profile())
}

// GET /statistics
func (h *UsersHandler) Statistics(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	if cached, ok, err := h.stats.Get(cctx, StatisticsCacheKey); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "statistics cache read failed", "err", err)
	} else if ok {
		var counts []user.RoleCount
		if err := json.Unmarshal(cached, &counts); err == nil {
			RespondJSONWithETag(ctx, http.StatusOK, counts)
			return
		}
	}

	counts, err := h.store.CountByRole(cctx)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "count users by role failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Internal server error")
		return
	}

	if b, err := json.Marshal(counts); err == nil {
		if err := h.stats.Set(cctx, StatisticsCacheKey, b); err != nil {
			h.log.WarnContext(ctx.Request.Context(), "statistics cache write failed", "err", err)
		}
	}

	RespondJSONWithETag(ctx, http.StatusOK, counts)
}
