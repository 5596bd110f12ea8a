package config

import "github.com/secmon-lab/gyges/pkg/domain/types"

// Default inactivity thresholds in hours
const (
	DefaultWarningHours    = 20
	DefaultInactivityHours = 24
)

// GroupSettings holds the per-group configuration the core consumes:
// channel bindings, permission allow-lists, and inactivity thresholds.
type GroupSettings struct {
	GroupID           types.GroupID
	ActionChannel     types.ChannelID
	EscalationChannel types.ChannelID
	ReportChannel     types.ChannelID
	GatedRoles        []types.RoleID
	AdminRoles        []types.RoleID
	WarningHours      float64
	InactivityHours   float64
}

// NewGroupSettings returns settings with default thresholds for a group
func NewGroupSettings(groupID types.GroupID) *GroupSettings {
	return &GroupSettings{
		GroupID:         groupID,
		WarningHours:    DefaultWarningHours,
		InactivityHours: DefaultInactivityHours,
	}
}
