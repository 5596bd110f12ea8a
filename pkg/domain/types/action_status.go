package types

import "fmt"

// ActionStatus represents the lifecycle status of an action
type ActionStatus string

const (
	ActionStatusOpen      ActionStatus = "OPEN"
	ActionStatusClosed    ActionStatus = "CLOSED"
	ActionStatusVictory   ActionStatus = "VICTORY"
	ActionStatusDefeat    ActionStatus = "DEFEAT"
	ActionStatusInactive  ActionStatus = "INACTIVE"
	ActionStatusCancelled ActionStatus = "CANCELLED"
)

// AllActionStatuses returns all valid action statuses
func AllActionStatuses() []ActionStatus {
	return []ActionStatus{
		ActionStatusOpen,
		ActionStatusClosed,
		ActionStatusVictory,
		ActionStatusDefeat,
		ActionStatusInactive,
		ActionStatusCancelled,
	}
}

// IsValid checks if the action status is valid
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusOpen,
		ActionStatusClosed,
		ActionStatusVictory,
		ActionStatusDefeat,
		ActionStatusInactive,
		ActionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the action is still accepting lifecycle events
func (s ActionStatus) IsOpen() bool {
	return s == ActionStatusOpen
}

// IsClosed reports whether the action has left the open state
func (s ActionStatus) IsClosed() bool {
	switch s {
	case ActionStatusClosed,
		ActionStatusVictory,
		ActionStatusDefeat,
		ActionStatusInactive:
		return true
	default:
		return false
	}
}

// HasResult reports whether a final outcome has been recorded. Once true,
// no further lifecycle transition is legal.
func (s ActionStatus) HasResult() bool {
	switch s {
	case ActionStatusVictory,
		ActionStatusDefeat,
		ActionStatusInactive:
		return true
	default:
		return false
	}
}

// CanSetResult reports whether a result may be recorded from this status
func (s ActionStatus) CanSetResult() bool {
	return s == ActionStatusClosed
}

// String returns the string representation of the action status
func (s ActionStatus) String() string {
	return string(s)
}

// ParseActionStatus parses a string into an ActionStatus
func ParseActionStatus(s string) (ActionStatus, error) {
	status := ActionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid action status: %s", s)
	}
	return status, nil
}
