package postgres

import (
	"strings"
	"testing"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBuildListUsersQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    user.ListUsersFilter
		wantWhere string
		wantTail  string
		wantArgs  []any
	}{
		{
			name:      "no filters",
			filter:    user.ListUsersFilter{Page: 1, Limit: 10},
			wantWhere: "",
			wantTail:  "LIMIT $1 OFFSET $2",
			wantArgs:  []any{10, 0},
		},
		{
			name:      "role only",
			filter:    user.ListUsersFilter{Role: ptr(user.RoleAdmin), Page: 1, Limit: 10},
			wantWhere: " WHERE role = $1",
			wantTail:  "LIMIT $2 OFFSET $3",
			wantArgs:  []any{"Admin", 10, 0},
		},
		{
			name:      "country only",
			filter:    user.ListUsersFilter{Country: ptr("US"), Page: 3, Limit: 5},
			wantWhere: " WHERE country = $1",
			wantTail:  "LIMIT $2 OFFSET $3",
			wantArgs:  []any{"US", 5, 10},
		},
		{
			name:      "role and country",
			filter:    user.ListUsersFilter{Role: ptr(user.RoleManager), Country: ptr("DE"), Page: 2, Limit: 10},
			wantWhere: " WHERE role = $1 AND country = $2",
			wantTail:  "LIMIT $3 OFFSET $4",
			wantArgs:  []any{"Manager", "DE", 10, 10},
		},
		{
			name:      "paging defaults applied",
			filter:    user.ListUsersFilter{},
			wantWhere: "",
			wantTail:  "LIMIT $1 OFFSET $2",
			wantArgs:  []any{user.DefaultLimit, 0},
		},
		{
			name:      "limit capped",
			filter:    user.ListUsersFilter{Page: 2, Limit: 1000},
			wantWhere: "",
			wantTail:  "LIMIT $1 OFFSET $2",
			wantArgs:  []any{user.MaxLimit, user.MaxLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := BuildListUsersQuery(tt.filter)

			require.True(t, strings.HasPrefix(query, "SELECT "+userColumns+" FROM users"+tt.wantWhere+" ORDER BY"), query)
			require.True(t, strings.HasSuffix(query, tt.wantTail), query)
			require.Contains(t, query, "ORDER BY created_at ASC, id ASC")
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildListUsersQuery_ValuesAreNeverInlined(t *testing.T) {
	hostile := "US' OR '1'='1"
	role := user.Role("Admin'; DROP TABLE users; --")

	query, args := BuildListUsersQuery(user.ListUsersFilter{Role: &role, Country: &hostile, Page: 1, Limit: 10})

	require.NotContains(t, query, hostile)
	require.NotContains(t, query, string(role))
	require.NotContains(t, query, "'")
	require.Equal(t, []any{string(role), hostile, 10, 0}, args)
}

func TestBuildCountUsersQuery_UsesSamePredicate(t *testing.T) {
	filters := []user.ListUsersFilter{
		{},
		{Role: ptr(user.RoleAdmin)},
		{Country: ptr("US")},
		{Role: ptr(user.RoleUser), Country: ptr("US"), Page: 4, Limit: 25},
	}

	for _, f := range filters {
		listQuery, listArgs := BuildListUsersQuery(f)
		countQuery, countArgs := BuildCountUsersQuery(f)

		where, _ := userPredicate(f)
		require.Equal(t, "SELECT COUNT(*) FROM users"+where, countQuery)
		require.Contains(t, listQuery, "FROM users"+where+" ORDER BY")

		// count binds exactly the filter values, the page query adds limit and offset
		require.Len(t, listArgs, len(countArgs)+2)
		for i := range countArgs {
			require.Equal(t, countArgs[i], listArgs[i])
		}
		require.NotContains(t, countQuery, "LIMIT")
	}
}
