package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
)

// Repository is an in-memory store implementation for tests and
// development mode. Entries are deep-copied at every boundary so callers
// can never alias stored state.
type Repository struct {
	mu      sync.RWMutex
	active  map[types.ActionID]*model.Action
	history map[types.ActionID]*model.Action
	order   []types.ActionID
}

var _ interfaces.Repository = &Repository{}

// New creates an empty in-memory repository
func New() *Repository {
	return &Repository{
		active:  make(map[types.ActionID]*model.Action),
		history: make(map[types.ActionID]*model.Action),
	}
}

func (r *Repository) SaveActive(ctx context.Context, actions map[types.ActionID]*model.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[types.ActionID]*model.Action, len(actions))
	for id, a := range actions {
		snapshot[id] = a.Clone()
	}
	r.active = snapshot
	return nil
}

func (r *Repository) LoadActive(ctx context.Context) (map[types.ActionID]*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.ActionID]*model.Action, len(r.active))
	for id, a := range r.active {
		result[id] = a.Clone()
	}
	return result, nil
}

func (r *Repository) UpsertHistory(ctx context.Context, action *model.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.history[action.ID]; !exists {
		r.order = append(r.order, action.ID)
	}
	r.history[action.ID] = action.Clone()
	return nil
}

func (r *Repository) LoadHistory(ctx context.Context) ([]*model.Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Action, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.history[id].Clone())
	}
	return result, nil
}
