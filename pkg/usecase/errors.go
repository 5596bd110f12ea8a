package usecase

import "errors"

// Sentinel errors for the registry layer. Guard failures on existing
// actions are reported through the boolean operation contract, not as
// errors; these cover creation-time validation only.
var (
	ErrNameRequired    = errors.New("action name is required")
	ErrInvalidCapacity = errors.New("action capacity must be positive")
)

// Context keys for error values
const (
	ActionIDKey = "action_id"
	GroupIDKey  = "group_id"
)
