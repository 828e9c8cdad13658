package charges

import "errors"

var (
	ErrNotFound        = errors.New("social charges calculation not found")
	ErrMissingInput    = errors.New("project and period are required")
	ErrInvalidSchedule = errors.New("invalid rate schedule")
)
