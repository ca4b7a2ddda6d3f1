package user

import "errors"

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleUser    Role = "User"
	RoleManager Role = "Manager"
)

var ErrInvalidRole = errors.New("invalid role")

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleUser, RoleManager}
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleManager:
		return true
	default:
		return false
	}
}

func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}
