package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GroupID identifies the community/tenant that owns an action
type GroupID string

func (x GroupID) String() string { return string(x) }

// UserID identifies a platform user
type UserID string

func (x UserID) String() string { return string(x) }

// Empty reports whether the user ID is unset
func (x UserID) Empty() bool { return x == "" }

// RoleID identifies a platform role referenced by permission allow-lists
type RoleID string

func (x RoleID) String() string { return string(x) }

// ChannelID is an opaque reference to a platform channel
type ChannelID string

func (x ChannelID) String() string { return string(x) }

// MessageID is an opaque reference to a platform message
type MessageID string

func (x MessageID) String() string { return string(x) }

// ActionID identifies an action, unique across the process lifetime
type ActionID string

// NewActionID generates a new action ID. The group prefix keeps IDs
// attributable per tenant; the uuid suffix disambiguates creations that
// land on the same millisecond.
func NewActionID(groupID GroupID) ActionID {
	return ActionID(fmt.Sprintf("%s_%d_%s", groupID, time.Now().UnixMilli(), uuid.NewString()[:8]))
}

func (x ActionID) String() string { return string(x) }
