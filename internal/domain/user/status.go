package user

import "errors"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var ErrInvalidStatus = errors.New("invalid status value")

// ParseStatus maps the wire representation of a status to the stored flag.
func ParseStatus(raw string) (bool, error) {
	switch raw {
	case StatusActive:
		return true, nil
	case StatusInactive:
		return false, nil
	default:
		return false, ErrInvalidStatus
	}
}
