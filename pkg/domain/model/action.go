package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Action represents a time-bounded group task. It stores only IDs of
// platform entities, never platform objects. All state transitions are
// pure and synchronous; persistence and locking belong to the registry.
type Action struct {
	ID      types.ActionID `json:"id"`
	GroupID types.GroupID  `json:"group_id"`
	Name    string         `json:"name"`
	TypeKey string         `json:"type_key"`

	// Claimed roles. A claimed role does not imply roster membership.
	CoordinatorID types.UserID `json:"coordinator_id,omitempty"`
	RoleAID       types.UserID `json:"role_a_id,omitempty"`
	RoleBID       types.UserID `json:"role_b_id,omitempty"`

	// Ordered roster, bounded by Capacity. Insertion order is display order.
	ParticipantIDs []types.UserID `json:"participant_ids"`

	ChannelID types.ChannelID `json:"channel_id,omitempty"`
	MessageID types.MessageID `json:"message_id,omitempty"`

	Status             types.ActionStatus `json:"status"`
	CreatedAt          time.Time          `json:"created_at"`
	ClosedAt           *time.Time         `json:"closed_at,omitempty"`
	FinishedAt         *time.Time         `json:"finished_at,omitempty"`
	InactivityWarnedAt *time.Time         `json:"inactivity_warned_at,omitempty"`

	Capacity          int    `json:"capacity"`
	HasRoleA          bool   `json:"has_role_a"`
	HasRoleB          bool   `json:"has_role_b"`
	RequiresGatedRole bool   `json:"requires_gated_role"`
	DisplayName       string `json:"display_name"`

	ClosedByID    types.UserID `json:"closed_by_id,omitempty"`
	ResultSetByID types.UserID `json:"result_set_by_id,omitempty"`
}

// IsOpen reports whether the action is open
func (a *Action) IsOpen() bool {
	return a.Status.IsOpen()
}

// IsClosed reports whether the action has left the open state
func (a *Action) IsClosed() bool {
	return a.Status.IsClosed()
}

// HasResult reports whether a final outcome has been recorded
func (a *Action) HasResult() bool {
	return a.Status.HasResult()
}

// CanSetResult reports whether a result may be recorded now
func (a *Action) CanSetResult() bool {
	return a.Status.CanSetResult()
}

// IsFull reports whether the roster reached its capacity
func (a *Action) IsFull() bool {
	return len(a.ParticipantIDs) >= a.Capacity
}

// AddParticipant appends a user to the roster. Returns false without
// mutation if the user already joined or the roster is full.
func (a *Action) AddParticipant(userID types.UserID) bool {
	if slices.Contains(a.ParticipantIDs, userID) {
		return false
	}
	if a.IsFull() {
		return false
	}
	a.ParticipantIDs = append(a.ParticipantIDs, userID)
	return true
}

// RemoveParticipant removes a user from the roster. A removed participant
// cannot keep a claimed sub-task role, so role A/B are cleared when held
// by the same user. Returns false if the user is not on the roster.
func (a *Action) RemoveParticipant(userID types.UserID) bool {
	idx := slices.Index(a.ParticipantIDs, userID)
	if idx < 0 {
		return false
	}
	a.ParticipantIDs = slices.Delete(a.ParticipantIDs, idx, idx+1)
	if a.RoleAID == userID {
		a.RoleAID = ""
	}
	if a.RoleBID == userID {
		a.RoleBID = ""
	}
	return true
}

// Close transitions OPEN -> CLOSED, recording when and by whom.
func (a *Action) Close(actor types.UserID, now time.Time) bool {
	if !a.IsOpen() {
		return false
	}
	a.Status = types.ActionStatusClosed
	a.ClosedAt = &now
	a.ClosedByID = actor
	return true
}

// Reopen transitions CLOSED -> OPEN as long as no result was recorded.
// The closing audit fields are cleared; a later Close records the new closer.
func (a *Action) Reopen() bool {
	if a.HasResult() || a.IsOpen() {
		return false
	}
	a.Status = types.ActionStatusOpen
	a.ClosedAt = nil
	a.ClosedByID = ""
	return true
}

// SetResult transitions CLOSED -> VICTORY/DEFEAT.
func (a *Action) SetResult(result types.ActionResult, actor types.UserID, now time.Time) bool {
	if !a.CanSetResult() || !result.IsValid() {
		return false
	}
	a.Status = result.Status()
	a.FinishedAt = &now
	a.ResultSetByID = actor
	return true
}

// ForceResult records a result from OPEN or CLOSED. An open action is
// closed first with the same actor, so the audit trail reads as
// close-then-result.
func (a *Action) ForceResult(result types.ActionResult, actor types.UserID, now time.Time) bool {
	if a.HasResult() || !result.IsValid() {
		return false
	}
	if a.IsOpen() {
		a.Close(actor, now)
	}
	return a.SetResult(result, actor, now)
}

// MarkInactive transitions OPEN -> INACTIVE. Inactivity bypasses the
// closed state: FinishedAt is set but ClosedAt stays empty.
func (a *Action) MarkInactive(now time.Time) bool {
	if a.HasResult() {
		return false
	}
	a.Status = types.ActionStatusInactive
	a.FinishedAt = &now
	return true
}

// MarkInactivityWarned records that the inactivity warning was delivered
func (a *Action) MarkInactivityWarned(now time.Time) {
	a.InactivityWarnedAt = &now
}

// HoursSinceCreation returns the age of the action in hours
func (a *Action) HoursSinceCreation(now time.Time) float64 {
	return now.Sub(a.CreatedAt).Hours()
}

// HoursSinceClosed returns hours elapsed since closing, or 0 if never closed
func (a *Action) HoursSinceClosed(now time.Time) float64 {
	if a.ClosedAt == nil {
		return 0
	}
	return now.Sub(*a.ClosedAt).Hours()
}

// Clone returns a deep copy of the action
func (a *Action) Clone() *Action {
	copied := *a
	copied.ParticipantIDs = slices.Clone(a.ParticipantIDs)
	copied.ClosedAt = cloneTime(a.ClosedAt)
	copied.FinishedAt = cloneTime(a.FinishedAt)
	copied.InactivityWarnedAt = cloneTime(a.InactivityWarnedAt)
	return &copied
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
