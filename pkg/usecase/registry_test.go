package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/model/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/repository/memory"
	"github.com/secmon-lab/gyges/pkg/usecase"
)

const testGroupID = types.GroupID("G100")

func testTypeConfig() config.ActionType {
	return config.ActionType{
		Key:         "MAJOR_INCIDENT",
		Capacity:    5,
		HasRoleA:    true,
		HasRoleB:    true,
		DisplayName: "Major Incident",
	}
}

func newTestRegistry(t *testing.T, opts ...usecase.Option) *usecase.Registry {
	t.Helper()
	reg, err := usecase.New(context.Background(), memory.New(), opts...)
	gt.NoError(t, err).Required()
	return reg
}

func mustCreate(t *testing.T, reg *usecase.Registry, cfg config.ActionType) *model.Action {
	t.Helper()
	action, err := reg.Create(context.Background(), testGroupID, "test action", cfg, "C1", "M1")
	gt.NoError(t, err).Required()
	return action
}

func TestRegistry_Create(t *testing.T) {
	t.Run("populates fields from type config", func(t *testing.T) {
		reg := newTestRegistry(t)
		action := mustCreate(t, reg, testTypeConfig())

		gt.Value(t, action.GroupID).Equal(testGroupID)
		gt.Value(t, action.TypeKey).Equal("MAJOR_INCIDENT")
		gt.Value(t, action.Status).Equal(types.ActionStatusOpen)
		gt.Number(t, action.Capacity).Equal(5)
		gt.B(t, action.HasRoleA).True()
		gt.B(t, action.HasRoleB).True()
		gt.Value(t, action.DisplayName).Equal("Major Incident")
		gt.B(t, action.CreatedAt.IsZero()).False()
		gt.Value(t, action.ChannelID).Equal(types.ChannelID("C1"))
		gt.Value(t, action.MessageID).Equal(types.MessageID("M1"))
	})

	t.Run("generated IDs are unique and group-prefixed", func(t *testing.T) {
		reg := newTestRegistry(t)
		seen := map[types.ActionID]bool{}
		for i := 0; i < 20; i++ {
			action := mustCreate(t, reg, testTypeConfig())
			gt.B(t, seen[action.ID]).False()
			seen[action.ID] = true
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		reg := newTestRegistry(t)
		_, err := reg.Create(context.Background(), testGroupID, "", testTypeConfig(), "", "")
		gt.B(t, errors.Is(err, usecase.ErrNameRequired)).True()
	})

	t.Run("rejects non-positive capacity", func(t *testing.T) {
		reg := newTestRegistry(t)
		cfg := testTypeConfig()
		cfg.Capacity = 0
		_, err := reg.Create(context.Background(), testGroupID, "x", cfg, "", "")
		gt.B(t, errors.Is(err, usecase.ErrInvalidCapacity)).True()
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("returns copy, not live entity", func(t *testing.T) {
		reg := newTestRegistry(t)
		action := mustCreate(t, reg, testTypeConfig())

		got, ok := reg.Get(action.ID)
		gt.B(t, ok).True()
		got.Name = "tampered"

		again, ok := reg.Get(action.ID)
		gt.B(t, ok).True()
		gt.Value(t, again.Name).Equal("test action")
	})

	t.Run("absent action", func(t *testing.T) {
		reg := newTestRegistry(t)
		_, ok := reg.Get("nope")
		gt.B(t, ok).False()
	})
}

func TestRegistry_ListGroupActions(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	a := mustCreate(t, reg, testTypeConfig())
	b := mustCreate(t, reg, testTypeConfig())
	_, err := reg.Create(ctx, "G999", "other group", testTypeConfig(), "", "")
	gt.NoError(t, err).Required()

	gt.B(t, reg.Close(ctx, b.ID, "U1")).True()

	open := reg.ListGroupActions(testGroupID, false)
	gt.Array(t, open).Length(1)
	gt.Value(t, open[0].ID).Equal(a.ID)

	all := reg.ListGroupActions(testGroupID, true)
	gt.Array(t, all).Length(2)
}

func TestRegistry_ClaimCoordinator(t *testing.T) {
	t.Run("second claim fails and keeps first claimant", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.ClaimCoordinator(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimCoordinator(ctx, action.ID, "U2")).False()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.CoordinatorID).Equal(types.UserID("U1"))
	})

	t.Run("claim on closed action fails", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.Close(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimCoordinator(ctx, action.ID, "U2")).False()
	})

	t.Run("absent action fails", func(t *testing.T) {
		reg := newTestRegistry(t)
		gt.B(t, reg.ClaimCoordinator(context.Background(), "nope", "U1")).False()
	})
}

func TestRegistry_ClaimRoles(t *testing.T) {
	t.Run("role claims are independent", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.ClaimRoleA(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimRoleB(ctx, action.ID, "U2")).True()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.RoleAID).Equal(types.UserID("U1"))
		gt.Value(t, got.RoleBID).Equal(types.UserID("U2"))
		// Claiming a role must not touch the roster
		gt.Array(t, got.ParticipantIDs).Length(0)
	})

	t.Run("second claim fails", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.ClaimRoleA(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimRoleA(ctx, action.ID, "U2")).False()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.RoleAID).Equal(types.UserID("U1"))
	})

	t.Run("disabled role cannot be claimed", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		cfg := testTypeConfig()
		cfg.HasRoleB = false
		action := mustCreate(t, reg, cfg)

		gt.B(t, reg.ClaimRoleB(ctx, action.ID, "U1")).False()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.RoleBID).Equal(types.UserID(""))
	})

	t.Run("claim on closed action fails", func(t *testing.T) {
		// Decided behavior: sub-task claims require openness, same as the
		// coordinator claim.
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.Close(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimRoleA(ctx, action.ID, "U2")).False()
		gt.B(t, reg.ClaimRoleB(ctx, action.ID, "U2")).False()
	})
}

func TestRegistry_Participants(t *testing.T) {
	t.Run("capacity boundary", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		cfg := testTypeConfig()
		cfg.Capacity = 2
		action := mustCreate(t, reg, cfg)

		gt.B(t, reg.AddParticipant(ctx, action.ID, "UA")).True()
		gt.B(t, reg.AddParticipant(ctx, action.ID, "UB")).True()
		gt.B(t, reg.AddParticipant(ctx, action.ID, "UC")).False()

		got, _ := reg.Get(action.ID)
		gt.B(t, got.IsFull()).True()
		gt.Array(t, got.ParticipantIDs).Equal([]types.UserID{"UA", "UB"})
	})

	t.Run("join requires open action", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.Close(ctx, action.ID, "U1")).True()
		gt.B(t, reg.AddParticipant(ctx, action.ID, "U2")).False()
	})

	t.Run("leave works on closed action and clears held role", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.AddParticipant(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimRoleA(ctx, action.ID, "U1")).True()
		gt.B(t, reg.Close(ctx, action.ID, "U9")).True()

		gt.B(t, reg.RemoveParticipant(ctx, action.ID, "U1")).True()

		got, _ := reg.Get(action.ID)
		gt.Array(t, got.ParticipantIDs).Length(0)
		gt.Value(t, got.RoleAID).Equal(types.UserID(""))
	})
}

func TestRegistry_Lifecycle(t *testing.T) {
	t.Run("close reopen close records second closer", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.Close(ctx, action.ID, "U1")).True()
		gt.B(t, reg.Reopen(ctx, action.ID)).True()
		gt.B(t, reg.Close(ctx, action.ID, "U2")).True()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.Status).Equal(types.ActionStatusClosed)
		gt.Value(t, got.ClosedByID).Equal(types.UserID("U2"))
	})

	t.Run("set result only from closed", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.SetResult(ctx, action.ID, types.ActionResultVictory, "U1")).False()
		gt.B(t, reg.Close(ctx, action.ID, "U1")).True()
		gt.B(t, reg.SetResult(ctx, action.ID, types.ActionResultVictory, "U1")).True()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.Status).Equal(types.ActionStatusVictory)
	})

	t.Run("invalid result is rejected", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.Close(ctx, action.ID, "U1")).True()
		gt.B(t, reg.SetResult(ctx, action.ID, types.ActionResult("draw"), "U1")).False()
	})

	t.Run("force result from open", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.ForceResult(ctx, action.ID, types.ActionResultVictory, "U7")).True()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.Status).Equal(types.ActionStatusVictory)
		gt.Value(t, got.ClosedAt).NotNil()
		gt.Value(t, got.ClosedByID).Equal(types.UserID("U7"))
		gt.Value(t, got.FinishedAt).NotNil()
		gt.Value(t, got.ResultSetByID).Equal(types.UserID("U7"))
	})

	t.Run("result is sticky across all operations", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.ForceResult(ctx, action.ID, types.ActionResultDefeat, "U1")).True()

		gt.B(t, reg.Close(ctx, action.ID, "U2")).False()
		gt.B(t, reg.Reopen(ctx, action.ID)).False()
		gt.B(t, reg.SetResult(ctx, action.ID, types.ActionResultVictory, "U2")).False()
		gt.B(t, reg.ForceResult(ctx, action.ID, types.ActionResultVictory, "U2")).False()
		gt.B(t, reg.MarkInactive(ctx, action.ID)).False()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.Status).Equal(types.ActionStatusDefeat)
	})

	t.Run("mark inactive from open leaves no closed_at", func(t *testing.T) {
		reg := newTestRegistry(t)
		ctx := context.Background()
		action := mustCreate(t, reg, testTypeConfig())

		gt.B(t, reg.MarkInactive(ctx, action.ID)).True()

		got, _ := reg.Get(action.ID)
		gt.Value(t, got.Status).Equal(types.ActionStatusInactive)
		gt.Value(t, got.ClosedAt).Nil()
		gt.Value(t, got.FinishedAt).NotNil()
	})
}

func TestRegistry_InactivityScans(t *testing.T) {
	t.Run("warning and close scans with simulated clock", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		reg := newTestRegistry(t, usecase.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		action := mustCreate(t, reg, testTypeConfig())

		// 25 hours later: over both thresholds
		now = now.Add(25 * time.Hour)

		warn := reg.ActionsNeedingWarning(20)
		gt.Array(t, warn).Length(1)
		gt.Value(t, warn[0].ID).Equal(action.ID)

		gt.B(t, reg.MarkInactivityWarned(ctx, action.ID)).True()

		// Warned actions drop out of the warning scan but still need closing
		gt.Array(t, reg.ActionsNeedingWarning(20)).Length(0)
		needClose := reg.ActionsNeedingClose(24)
		gt.Array(t, needClose).Length(1)
		gt.Value(t, needClose[0].ID).Equal(action.ID)
	})

	t.Run("fresh actions appear in neither scan", func(t *testing.T) {
		reg := newTestRegistry(t)
		mustCreate(t, reg, testTypeConfig())

		gt.Array(t, reg.ActionsNeedingWarning(20)).Length(0)
		gt.Array(t, reg.ActionsNeedingClose(24)).Length(0)
	})

	t.Run("resulted actions are ignored by both scans", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		reg := newTestRegistry(t, usecase.WithClock(func() time.Time { return now }))
		ctx := context.Background()

		action := mustCreate(t, reg, testTypeConfig())
		gt.B(t, reg.ForceResult(ctx, action.ID, types.ActionResultVictory, "U1")).True()

		now = now.Add(48 * time.Hour)
		gt.Array(t, reg.ActionsNeedingWarning(20)).Length(0)
		gt.Array(t, reg.ActionsNeedingClose(24)).Length(0)
	})
}

func TestRegistry_DeleteAndHistory(t *testing.T) {
	t.Run("delete removes from active set, history survives", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()
		reg, err := usecase.New(ctx, repo)
		gt.NoError(t, err).Required()

		action, err := reg.Create(ctx, testGroupID, "doomed", testTypeConfig(), "", "")
		gt.NoError(t, err).Required()

		gt.B(t, reg.Delete(ctx, action.ID)).True()
		gt.B(t, reg.Delete(ctx, action.ID)).False()

		_, ok := reg.Get(action.ID)
		gt.B(t, ok).False()

		history, err := reg.LoadHistory(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, history).Length(1)
		gt.Value(t, history[0].ID).Equal(action.ID)
	})

	t.Run("history window filters by creation time", func(t *testing.T) {
		now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
		repo := memory.New()
		ctx := context.Background()
		reg, err := usecase.New(ctx, repo, usecase.WithClock(func() time.Time { return now }))
		gt.NoError(t, err).Required()

		old, err := reg.Create(ctx, testGroupID, "old", testTypeConfig(), "", "")
		gt.NoError(t, err).Required()

		now = now.Add(10 * 24 * time.Hour)
		recent, err := reg.Create(ctx, testGroupID, "recent", testTypeConfig(), "", "")
		gt.NoError(t, err).Required()

		windowed, err := reg.LoadHistory(ctx, 7)
		gt.NoError(t, err).Required()
		gt.Array(t, windowed).Length(1)
		gt.Value(t, windowed[0].ID).Equal(recent.ID)

		full, err := reg.LoadHistory(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, full).Length(2)
		_ = old
	})
}

func TestRegistry_Startup(t *testing.T) {
	t.Run("fresh registry sees persisted state losslessly", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()

		reg, err := usecase.New(ctx, repo)
		gt.NoError(t, err).Required()

		action, err := reg.Create(ctx, testGroupID, "survivor", testTypeConfig(), "C9", "M9")
		gt.NoError(t, err).Required()
		gt.B(t, reg.AddParticipant(ctx, action.ID, "U1")).True()
		gt.B(t, reg.ClaimCoordinator(ctx, action.ID, "U2")).True()
		gt.B(t, reg.Close(ctx, action.ID, "U2")).True()

		reloaded, err := usecase.New(ctx, repo)
		gt.NoError(t, err).Required()

		got, ok := reloaded.Get(action.ID)
		gt.B(t, ok).True()
		gt.Value(t, got.Name).Equal("survivor")
		gt.Value(t, got.CoordinatorID).Equal(types.UserID("U2"))
		gt.Array(t, got.ParticipantIDs).Equal([]types.UserID{"U1"})
		gt.Value(t, got.Status).Equal(types.ActionStatusClosed)
		gt.Value(t, got.ClosedByID).Equal(types.UserID("U2"))
		gt.Value(t, got.ChannelID).Equal(types.ChannelID("C9"))
	})

	t.Run("closed actions loaded at startup stay active", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()

		reg, err := usecase.New(ctx, repo)
		gt.NoError(t, err).Required()
		action, err := reg.Create(ctx, testGroupID, "closed one", testTypeConfig(), "", "")
		gt.NoError(t, err).Required()
		gt.B(t, reg.ForceResult(ctx, action.ID, types.ActionResultVictory, "U1")).True()

		reloaded, err := usecase.New(ctx, repo)
		gt.NoError(t, err).Required()

		// The active set is not filtered by openness
		all := reloaded.ListGroupActions(testGroupID, true)
		gt.Array(t, all).Length(1)
	})
}

// failingRepo wraps a working repository but fails every write, to pin
// the best-effort durability contract.
type failingRepo struct {
	interfaces.Repository
}

func (r *failingRepo) SaveActive(ctx context.Context, actions map[types.ActionID]*model.Action) error {
	return errors.New("disk full")
}

func (r *failingRepo) UpsertHistory(ctx context.Context, action *model.Action) error {
	return errors.New("disk full")
}

func TestRegistry_BestEffortPersistence(t *testing.T) {
	ctx := context.Background()
	reg, err := usecase.New(ctx, &failingRepo{Repository: memory.New()})
	gt.NoError(t, err).Required()

	// Store writes fail but the in-memory mutation sticks and the
	// operation reports success.
	action, err := reg.Create(ctx, testGroupID, "ephemeral", testTypeConfig(), "", "")
	gt.NoError(t, err).Required()

	gt.B(t, reg.ClaimCoordinator(ctx, action.ID, "U1")).True()

	got, ok := reg.Get(action.ID)
	gt.B(t, ok).True()
	gt.Value(t, got.CoordinatorID).Equal(types.UserID("U1"))
}
