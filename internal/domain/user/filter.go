package user

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// with pointers if optional, it will be nil
type ListUsersFilter struct {
	Role    *Role
	Country *string
	Page    int
	Limit   int
}

// NormalizePage applies the paging defaults and caps the page size.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func (f ListUsersFilter) Normalized() ListUsersFilter {
	f.Page, f.Limit = NormalizePage(f.Page, f.Limit)
	return f
}

// PageInRange reports whether (page-1)*limit fits in an int.
func PageInRange(page, limit int) bool {
	if page < 1 || limit < 1 {
		return true
	}
	return page-1 <= math.MaxInt/limit
}

// Offset is never negative; an overflowing page saturates at math.MaxInt.
func (f ListUsersFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if !PageInRange(f.Page, f.Limit) {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}
