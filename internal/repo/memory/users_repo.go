package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
)

// UsersRepo is a process-local user store used for STORE_DRIVER=memory and tests.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User // id -> user
	byEmail map[string]string    // email -> id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

// List mirrors the postgres ordering: created_at, then id.
func (r *UsersRepo) List(ctx context.Context, filter user.ListUsersFilter) ([]user.User, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	filter = filter.Normalized()

	r.mu.RLock()
	matched := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Country != nil && u.Country != *filter.Country {
			continue
		}
		matched = append(matched, u)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := filter.Offset()
	if start < 0 || start >= total {
		return []user.User{}, total, nil
	}

	end := total
	if filter.Limit < total-start {
		end = start + filter.Limit
	}

	return matched[start:end], total, nil
}

func (r *UsersRepo) UpdateStatus(ctx context.Context, id string, active bool) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.Status = active
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return u, nil
}

func (r *UsersRepo) CountByRole(ctx context.Context) ([]user.RoleCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[user.Role]int)

	r.mu.RLock()
	for _, u := range r.items {
		counts[u.Role]++
	}
	r.mu.RUnlock()

	out := make([]user.RoleCount, 0, len(counts))
	for role, count := range counts {
		out = append(out, user.RoleCount{Role: role, Count: count})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Role < out[j].Role })

	return out, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
