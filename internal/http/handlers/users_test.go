package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// List users tests

func TestListUsersHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		check      func(t *testing.T, f user.ListUsersFilter)
	}{
		{
			name:       "defaults",
			query:      "",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f user.ListUsersFilter) {
				if f.Page != 1 || f.Limit != 10 || f.Role != nil || f.Country != nil {
					t.Fatalf("unexpected filter: %+v", f)
				}
			},
		},
		{
			name:       "filters and paging",
			query:      "?role=Manager&country=US&page=2&limit=5",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f user.ListUsersFilter) {
				if f.Role == nil || *f.Role != user.RoleManager {
					t.Fatalf("role filter not applied: %+v", f)
				}
				if f.Country == nil || *f.Country != "US" {
					t.Fatalf("country filter not applied: %+v", f)
				}
				if f.Page != 2 || f.Limit != 5 {
					t.Fatalf("paging not applied: %+v", f)
				}
			},
		},
		{
			name:       "blank filters ignored",
			query:      "?role=&country=",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f user.ListUsersFilter) {
				if f.Role != nil || f.Country != nil {
					t.Fatalf("blank filters should be ignored: %+v", f)
				}
			},
		},
		{
			name:       "limit capped",
			query:      "?limit=500",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f user.ListUsersFilter) {
				if f.Limit != user.MaxLimit {
					t.Fatalf("limit = %d, want %d", f.Limit, user.MaxLimit)
				}
			},
		},
		{name: "non-integer page", query: "?page=abc", wantStatus: http.StatusBadRequest},
		{name: "negative limit", query: "?limit=-1", wantStatus: http.StatusBadRequest},
		{name: "unknown role", query: "?role=Root", wantStatus: http.StatusBadRequest},
		{name: "page overflows offset", query: "?page=100000000000000000&limit=100", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got user.ListUsersFilter
			called := false

			repo := &fakeUsersRepo{
				listFn: func(ctx context.Context, filter user.ListUsersFilter) ([]user.User, int, error) {
					called = true
					got = filter
					return []user.User{{ID: "u-1", Role: user.RoleUser}}, 42, nil
				},
			}

			h := handlers.NewUsersHandler(repo, nil, nil)
			r := setupRouter(http.MethodGet, "/users", h.ListUsers)

			w := doJSON(r, http.MethodGet, "/users"+tt.query, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				if called {
					t.Fatalf("store must not be called on invalid input")
				}
				if code := decodeError(t, w).Code; code != "invalid_request" {
					t.Fatalf("got code %q, want invalid_request", code)
				}
				return
			}

			tt.check(t, got)

			var resp handlers.ListUsersResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Total != 42 || len(resp.Users) != 1 || resp.Page != got.Page || resp.Limit != got.Limit {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestListUsersHandler_StoreError(t *testing.T) {
	repo := &fakeUsersRepo{
		listFn: func(ctx context.Context, filter user.ListUsersFilter) ([]user.User, int, error) {
			return nil, 0, errors.New("db down")
		},
	}

	h := handlers.NewUsersHandler(repo, nil, nil)
	r := setupRouter(http.MethodGet, "/users", h.ListUsers)

	w := doJSON(r, http.MethodGet, "/users", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
	if apiErr := decodeError(t, w); apiErr.Code != "internal_error" || apiErr.Message == "db down" {
		t.Fatalf("store error leaked or wrong code: %+v", apiErr)
	}
}

// Update status tests

func TestUpdateStatusHandler(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name           string
		id             string
		body           string
		updateStatusFn func(ctx context.Context, id string, active bool) (user.User, error)
		wantStatus     int
		wantCode       string
	}{
		{
			name: "deactivate",
			id:   id,
			body: `{"status":"inactive"}`,
			updateStatusFn: func(ctx context.Context, gotID string, active bool) (user.User, error) {
				if active {
					return user.User{}, errors.New("expected inactive")
				}
				return user.User{ID: gotID, Status: active}, nil
			},
			wantStatus: http.StatusOK,
		},
		{name: "non uuid id", id: "42", body: `{"status":"active"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_id"},
		{name: "unknown status", id: id, body: `{"status":"banned"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_status"},
		{name: "missing status", id: id, body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_status"},
		{name: "boolean status", id: id, body: `{"status":true}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_status"},
		{
			name: "not found",
			id:   id,
			body: `{"status":"active"}`,
			updateStatusFn: func(ctx context.Context, id string, active bool) (user.User, error) {
				return user.User{}, user.ErrNotFound
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name: "store failure",
			id:   id,
			body: `{"status":"active"}`,
			updateStatusFn: func(ctx context.Context, id string, active bool) (user.User, error) {
				return user.User{}, errors.New("boom")
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{updateStatusFn: tt.updateStatusFn}
			h := handlers.NewUsersHandler(repo, nil, nil)
			r := setupRouter(http.MethodPatch, "/users/:id", h.UpdateStatus)

			w := doJSON(r, http.MethodPatch, "/users/"+tt.id, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := decodeError(t, w).Code; got != tt.wantCode {
					t.Fatalf("got code %q, want %q", got, tt.wantCode)
				}
				return
			}

			var resp handlers.UpdateStatusResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != "User status updated successfully" || resp.User.ID != tt.id || resp.User.Status {
				t.Fatalf("unexpected response: %+v", resp)
			}
		})
	}
}

// User data tests

func withIdentity(userID string, role user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := actorctx.WithIdentity(c.Request.Context(), actorctx.Identity{UserID: userID, Role: role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func TestUserDataHandler(t *testing.T) {
	repo := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id != "u-1" {
				return user.User{}, user.ErrNotFound
			}
			return user.User{ID: "u-1", Name: "A", Email: "a@x.com", PasswordHash: "secret", Country: "US", Role: user.RoleUser}, nil
		},
	}
	h := handlers.NewUsersHandler(repo, nil, nil)

	r := gin.New()
	r.GET("/user-data", withIdentity("u-1", user.RoleUser), h.UserData)

	w := doJSON(r, http.MethodGet, "/user-data", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := map[string]any{"name": "A", "email": "a@x.com", "country": "US", "role": "User"}
	if len(got) != len(want) {
		t.Fatalf("profile must only have %v, got %v", want, got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v", k, got[k], v)
		}
	}

	// token outlived its user
	r = gin.New()
	r.GET("/user-data", withIdentity("gone", user.RoleUser), h.UserData)

	w = doJSON(r, http.MethodGet, "/user-data", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

func TestUserDataHandler_NoIdentity(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeUsersRepo{}, nil, nil)
	r := setupRouter(http.MethodGet, "/user-data", h.UserData)

	w := doJSON(r, http.MethodGet, "/user-data", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("got status %d, want 403", w.Code)
	}
}

// Statistics tests

func TestStatisticsHandler_CachesAndServesETag(t *testing.T) {
	calls := 0
	repo := &fakeUsersRepo{
		countByRoleFn: func(ctx context.Context) ([]user.RoleCount, error) {
			calls++
			return []user.RoleCount{{Role: user.RoleAdmin, Count: 1}, {Role: user.RoleUser, Count: 3}}, nil
		},
	}

	h := handlers.NewUsersHandler(repo, cache.New(time.Minute), nil)
	r := setupRouter(http.MethodGet, "/statistics", h.Statistics)

	w := doJSON(r, http.MethodGet, "/statistics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d body=%s", w.Code, w.Body.String())
	}

	var counts []user.RoleCount
	if err := json.Unmarshal(w.Body.Bytes(), &counts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(counts) != 2 || counts[1].Count != 3 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
	if calls != 1 {
		t.Fatalf("store called %d times, want 1 (second request must hit the cache)", calls)
	}
}

func TestStatisticsHandler_StoreError(t *testing.T) {
	repo := &fakeUsersRepo{
		countByRoleFn: func(ctx context.Context) ([]user.RoleCount, error) {
			return nil, errors.New("db down")
		},
	}

	h := handlers.NewUsersHandler(repo, nil, nil)
	r := setupRouter(http.MethodGet, "/statistics", h.Statistics)

	w := doJSON(r, http.MethodGet, "/statistics", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want 500", w.Code)
	}
}

func TestStatisticsHandler_EmptyIsArray(t *testing.T) {
	h := handlers.NewUsersHandler(&fakeUsersRepo{}, nil, nil)
	r := setupRouter(http.MethodGet, "/statistics", h.Statistics)

	w := doJSON(r, http.MethodGet, "/statistics", "")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("got %d %q, want 200 []", w.Code, w.Body.String())
	}
}
