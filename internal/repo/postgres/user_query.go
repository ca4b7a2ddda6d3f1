package postgres

import (
	"fmt"
	"strings"

	"github.com/geocoder89/userhub/internal/domain/user"
)

const userColumns = `id, name, email, password_hash, country, role, status, created_at, updated_at`

// userPredicate renders the optional equality filters as bound placeholders.
// Page and count queries share it so the total always matches the filter.
func userPredicate(f user.ListUsersFilter) (string, []any) {
	var conds []string
	var args []any

	argsPosition := 1

	if f.Role != nil {
		conds = append(conds, fmt.Sprintf("role = $%d", argsPosition))
		args = append(args, string(*f.Role))
		argsPosition++
	}

	if f.Country != nil {
		conds = append(conds, fmt.Sprintf("country = $%d", argsPosition))
		args = append(args, *f.Country)
		argsPosition++
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

// BuildListUsersQuery returns one page of the filtered user set.
func BuildListUsersQuery(f user.ListUsersFilter) (string, []any) {
	f = f.Normalized()

	where, args := userPredicate(f)

	query := "SELECT " + userColumns + " FROM users" + where

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	args = append(args, f.Limit, f.Offset())

	return query, args
}

func BuildCountUsersQuery(f user.ListUsersFilter) (string, []any) {
	where, args := userPredicate(f)

	return "SELECT COUNT(*) FROM users" + where, args
}
