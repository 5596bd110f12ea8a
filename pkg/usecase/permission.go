package usecase

import (
	"slices"

	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Permission predicates. The platform in front of this service is the
// authority for which roles a member holds; these helpers only evaluate
// the configured allow-lists against that role set.

// HasAnyRole reports whether the member holds at least one of the allowed
// roles. An empty allow-list matches nothing.
func HasAnyRole(memberRoles, allowed []types.RoleID) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, role := range allowed {
		if slices.Contains(memberRoles, role) {
			return true
		}
	}
	return false
}

// CanClaimCoordinator reports whether a member may claim the coordinator
// slot. Gating applies only when the action requires it and the group
// actually configured an allow-list; with no allow-list anyone may claim.
func CanClaimCoordinator(action *model.Action, memberRoles, gatedRoles []types.RoleID) bool {
	if !action.RequiresGatedRole {
		return true
	}
	if len(gatedRoles) == 0 {
		return true
	}
	return HasAnyRole(memberRoles, gatedRoles)
}

// IsAdmin reports whether a member counts as a group admin. Platform
// administrators always qualify; otherwise the member needs one of the
// configured admin roles, and with none configured nobody else qualifies.
func IsAdmin(isPlatformAdmin bool, memberRoles, adminRoles []types.RoleID) bool {
	if isPlatformAdmin {
		return true
	}
	return HasAnyRole(memberRoles, adminRoles)
}

// CanManageAction reports whether a member may close, reopen, or record a
// result for the action: the claimed coordinator or an admin.
func CanManageAction(userID types.UserID, action *model.Action, isPlatformAdmin bool, memberRoles, adminRoles []types.RoleID) bool {
	if !action.CoordinatorID.Empty() && action.CoordinatorID == userID {
		return true
	}
	return IsAdmin(isPlatformAdmin, memberRoles, adminRoles)
}
