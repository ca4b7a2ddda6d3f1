package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
)

// storeTimeout bounds every store call made from a handler.
const storeTimeout = 3 * time.Second

const invalidCredentialsMessage = "Invalid email or password"

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID string, role user.Role) (string, time.Time, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	hasher     PasswordHasher
	tokens     TokenIssuer
	stats      cache.Store
	log        *slog.Logger
}

// stats may be nil when statistics caching is disabled.
func NewAuthHandler(users UserReader, userWriter UserWriter, hasher PasswordHasher, tokens TokenIssuer, stats cache.Store, log *slog.Logger) *AuthHandler {
	if stats == nil {
		stats = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		hasher:     hasher,
		tokens:     tokens,
		stats:      stats,
		log:        log,
	}
}

type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	Role      user.Role `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)

	if errors.Is(err, security.ErrPasswordTooLong) {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "password",
			Rule:    "max_bytes",
			Param:   strconv.Itoa(security.MaxPasswordBytes),
			Message: validationMessage("max_bytes", strconv.Itoa(security.MaxPasswordBytes)),
		}}})
		return
	}

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "hash password failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not register user")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	created, err := h.userWriter.Create(cctx, user.NewFromCreateRequest(req, hash))

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already registered")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "create user failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not register user")
		return
	}

	// role counts changed
	if err := h.stats.Delete(cctx, StatisticsCacheKey); err != nil {
		h.log.WarnContext(ctx.Request.Context(), "statistics cache invalidation failed", "err", err)
	}

	ctx.JSON(http.StatusCreated, created)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "invalid_credentials", invalidCredentialsMessage)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "lookup user failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not log in")
		return
	}

	ok, err := h.hasher.Verify(foundUser.PasswordHash, req.Password)
	if err != nil {
		// a corrupt stored hash must look like a wrong password to the caller
		h.log.WarnContext(ctx.Request.Context(), "stored password hash unreadable", "err", err, "user_id", foundUser.ID)
	}

	if !ok {
		RespondUnAuthorized(ctx, "invalid_credentials", invalidCredentialsMessage)
		return
	}

	token, expiresAt, err := h.tokens.Issue(foundUser.ID, foundUser.Role)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "issue token failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not generate token")
		return
	}

	ctx.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     token,
		Role:      foundUser.Role,
		ExpiresAt: expiresAt,
	})
}
