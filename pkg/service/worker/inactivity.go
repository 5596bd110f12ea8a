package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/model/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/usecase"
	"github.com/secmon-lab/gyges/pkg/utils/async"
	"github.com/secmon-lab/gyges/pkg/utils/errutil"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

// InactivityWorker periodically sweeps the active set for actions past
// their group's inactivity thresholds: first a warning notice, then an
// automatic transition to inactive.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
type InactivityWorker struct {
	registry *usecase.Registry
	notifier interfaces.Notifier
	groups   map[types.GroupID]*config.GroupSettings
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewInactivityWorker creates a worker sweeping at the given interval
func NewInactivityWorker(registry *usecase.Registry, notifier interfaces.Notifier, groups map[types.GroupID]*config.GroupSettings, interval time.Duration) *InactivityWorker {
	return &InactivityWorker{
		registry: registry,
		notifier: notifier,
		groups:   groups,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop. Does not block server startup.
func (w *InactivityWorker) Start(ctx context.Context) error {
	logging.Default().Info("inactivity worker starting",
		"interval", w.interval.String(), "groups", len(w.groups))

	async.Dispatch(ctx, func(ctx context.Context) error {
		w.run(ctx)
		return nil
	})

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *InactivityWorker) Stop() {
	logging.Default().Info("inactivity worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("inactivity worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *InactivityWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Sweep(ctx)

		case <-w.stopCh:
			logging.Default().Info("inactivity worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("inactivity worker context cancelled")
			return
		}
	}
}

// Sweep runs one warning pass and one close pass over every configured
// group. A failed notice does not block the state transition; the sweep
// continues with the remaining actions.
func (w *InactivityWorker) Sweep(ctx context.Context) {
	for _, gs := range w.groups {
		w.sweepWarnings(ctx, gs)
		w.sweepCloses(ctx, gs)
	}
}

func (w *InactivityWorker) sweepWarnings(ctx context.Context, gs *config.GroupSettings) {
	for _, action := range w.registry.ActionsNeedingWarning(gs.WarningHours) {
		if action.GroupID != gs.GroupID {
			continue
		}
		if !w.registry.MarkInactivityWarned(ctx, action.ID) {
			continue
		}

		logging.From(ctx).Info("inactivity warning issued",
			"action_id", action.ID, "group_id", action.GroupID)

		if w.notifier == nil {
			continue
		}
		if err := w.notifier.NotifyInactivityWarning(ctx, w.noticeChannel(action, gs), action, gs.WarningHours); err != nil {
			_ = errutil.Handle(ctx, err, "failed to deliver inactivity warning")
		}
	}
}

func (w *InactivityWorker) sweepCloses(ctx context.Context, gs *config.GroupSettings) {
	for _, action := range w.registry.ActionsNeedingClose(gs.InactivityHours) {
		if action.GroupID != gs.GroupID {
			continue
		}
		if !w.registry.MarkInactive(ctx, action.ID) {
			continue
		}

		logging.From(ctx).Info("action marked inactive",
			"action_id", action.ID, "group_id", action.GroupID)

		if w.notifier == nil {
			continue
		}
		if err := w.notifier.NotifyMarkedInactive(ctx, w.noticeChannel(action, gs), action, gs.InactivityHours); err != nil {
			_ = errutil.Handle(ctx, err, "failed to deliver inactive notice")
		}
	}
}

// noticeChannel prefers the action's own channel, falling back to the
// group's action channel
func (w *InactivityWorker) noticeChannel(action *model.Action, gs *config.GroupSettings) types.ChannelID {
	if action.ChannelID != "" {
		return action.ChannelID
	}
	return gs.ActionChannel
}
