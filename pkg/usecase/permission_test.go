package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/usecase"
)

func TestHasAnyRole(t *testing.T) {
	t.Run("matches on any overlap", func(t *testing.T) {
		member := []types.RoleID{"R1", "R2"}
		gt.B(t, usecase.HasAnyRole(member, []types.RoleID{"R2", "R3"})).True()
	})

	t.Run("no overlap", func(t *testing.T) {
		member := []types.RoleID{"R1"}
		gt.B(t, usecase.HasAnyRole(member, []types.RoleID{"R2"})).False()
	})

	t.Run("empty allow-list matches nothing", func(t *testing.T) {
		member := []types.RoleID{"R1"}
		gt.B(t, usecase.HasAnyRole(member, nil)).False()
	})
}

func TestCanClaimCoordinator(t *testing.T) {
	gated := []types.RoleID{"VETERAN"}

	t.Run("ungated action is open to everyone", func(t *testing.T) {
		action := &model.Action{RequiresGatedRole: false}
		gt.B(t, usecase.CanClaimCoordinator(action, nil, gated)).True()
	})

	t.Run("gated action requires one of the gated roles", func(t *testing.T) {
		action := &model.Action{RequiresGatedRole: true}
		gt.B(t, usecase.CanClaimCoordinator(action, []types.RoleID{"VETERAN"}, gated)).True()
		gt.B(t, usecase.CanClaimCoordinator(action, []types.RoleID{"ROOKIE"}, gated)).False()
	})

	t.Run("gating without configured roles is inert", func(t *testing.T) {
		action := &model.Action{RequiresGatedRole: true}
		gt.B(t, usecase.CanClaimCoordinator(action, nil, nil)).True()
	})
}

func TestIsAdmin(t *testing.T) {
	admins := []types.RoleID{"STAFF"}

	t.Run("platform admin always qualifies", func(t *testing.T) {
		gt.B(t, usecase.IsAdmin(true, nil, nil)).True()
	})

	t.Run("admin role qualifies", func(t *testing.T) {
		gt.B(t, usecase.IsAdmin(false, []types.RoleID{"STAFF"}, admins)).True()
	})

	t.Run("nobody else qualifies with no admin roles configured", func(t *testing.T) {
		gt.B(t, usecase.IsAdmin(false, []types.RoleID{"STAFF"}, nil)).False()
	})
}

func TestCanManageAction(t *testing.T) {
	admins := []types.RoleID{"STAFF"}

	t.Run("coordinator may manage", func(t *testing.T) {
		action := &model.Action{CoordinatorID: "U1"}
		gt.B(t, usecase.CanManageAction("U1", action, false, nil, admins)).True()
	})

	t.Run("non-coordinator without admin role may not", func(t *testing.T) {
		action := &model.Action{CoordinatorID: "U1"}
		gt.B(t, usecase.CanManageAction("U2", action, false, nil, admins)).False()
	})

	t.Run("admin may manage someone else's action", func(t *testing.T) {
		action := &model.Action{CoordinatorID: "U1"}
		gt.B(t, usecase.CanManageAction("U2", action, false, []types.RoleID{"STAFF"}, admins)).True()
	})

	t.Run("unclaimed action falls back to admin check", func(t *testing.T) {
		action := &model.Action{}
		gt.B(t, usecase.CanManageAction("U1", action, false, nil, admins)).False()
		gt.B(t, usecase.CanManageAction("U1", action, true, nil, admins)).True()
	})
}
