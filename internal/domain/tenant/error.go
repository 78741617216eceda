package tenant

import "errors"

var (
	ErrNotFound      = errors.New("pharmacy not found")
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrInactive      = errors.New("pharmacy is deactivated")
)
