package types

import "fmt"

// ActionResult is a recordable outcome of an action
type ActionResult string

const (
	ActionResultVictory ActionResult = "victory"
	ActionResultDefeat  ActionResult = "defeat"
)

// IsValid checks if the action result is valid
func (r ActionResult) IsValid() bool {
	switch r {
	case ActionResultVictory, ActionResultDefeat:
		return true
	default:
		return false
	}
}

// Status returns the action status corresponding to the result
func (r ActionResult) Status() ActionStatus {
	switch r {
	case ActionResultVictory:
		return ActionStatusVictory
	case ActionResultDefeat:
		return ActionStatusDefeat
	default:
		return ""
	}
}

// String returns the string representation of the action result
func (r ActionResult) String() string {
	return string(r)
}

// ParseActionResult parses a string into an ActionResult
func ParseActionResult(s string) (ActionResult, error) {
	result := ActionResult(s)
	if !result.IsValid() {
		return "", fmt.Errorf("invalid action result: %s", s)
	}
	return result, nil
}
