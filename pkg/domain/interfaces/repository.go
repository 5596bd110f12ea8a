package interfaces

import (
	"context"

	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Repository defines the two durable stores backing the action registry:
// an active-set snapshot rewritten in full on every mutation, and a history
// log holding at most one entry per action ID, never pruned.
type Repository interface {
	// SaveActive overwrites the entire active-set store
	SaveActive(ctx context.Context, actions map[types.ActionID]*model.Action) error

	// LoadActive reads the entire active-set store. Records that fail to
	// parse are skipped, not fatal.
	LoadActive(ctx context.Context) (map[types.ActionID]*model.Action, error)

	// UpsertHistory replaces or appends the history entry for the action's ID
	UpsertHistory(ctx context.Context, action *model.Action) error

	// LoadHistory reads the full history store
	LoadHistory(ctx context.Context) ([]*model.Action, error)
}
