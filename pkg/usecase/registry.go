package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/model/config"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/utils/errutil"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

// Registry owns the active set of actions and is the only sanctioned
// mutation path. Every mutating operation holds the write lock from guard
// check through persistence, so concurrent requests are applied one at a
// time, including requests against different actions. Reads are served
// from the in-memory map under a read lock and return deep copies.
//
// Persistence is best-effort: once the in-memory mutation succeeded, a
// failing store write is logged and the operation still reports success.
type Registry struct {
	mu      sync.RWMutex
	repo    interfaces.Repository
	actions map[types.ActionID]*model.Action
	now     func() time.Time
}

// Option configures a Registry
type Option func(*Registry)

// WithClock injects the time source, for deterministic tests
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New loads the full active-set store into memory and returns the
// registry. Every record in the store counts as active regardless of its
// status; resulted actions stay until explicitly deleted.
func New(ctx context.Context, repo interfaces.Repository, opts ...Option) (*Registry, error) {
	r := &Registry{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	actions, err := repo.LoadActive(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load active actions")
	}
	r.actions = actions

	logging.From(ctx).Info("active actions loaded", "count", len(actions))
	return r, nil
}

// persist writes both stores. Must be called with the write lock held.
func (r *Registry) persist(ctx context.Context, action *model.Action) {
	if err := r.repo.SaveActive(ctx, r.actions); err != nil {
		_ = errutil.Handle(ctx, err, "failed to save active actions")
	}
	if err := r.repo.UpsertHistory(ctx, action); err != nil {
		_ = errutil.Handle(ctx, err, "failed to upsert action history")
	}
}

// persistActiveOnly rewrites the active-set store without touching the
// history store. Must be called with the write lock held.
func (r *Registry) persistActiveOnly(ctx context.Context) {
	if err := r.repo.SaveActive(ctx, r.actions); err != nil {
		_ = errutil.Handle(ctx, err, "failed to save active actions")
	}
}

// Create registers a new open action configured from its type entry
func (r *Registry) Create(ctx context.Context, groupID types.GroupID, name string, typeCfg config.ActionType, channelID types.ChannelID, messageID types.MessageID) (*model.Action, error) {
	if name == "" {
		return nil, goerr.Wrap(ErrNameRequired, "create rejected", goerr.V(GroupIDKey, groupID))
	}
	if typeCfg.Capacity <= 0 {
		return nil, goerr.Wrap(ErrInvalidCapacity, "create rejected",
			goerr.V(GroupIDKey, groupID), goerr.V("capacity", typeCfg.Capacity))
	}

	displayName := typeCfg.DisplayName
	if displayName == "" {
		displayName = name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	action := &model.Action{
		ID:                types.NewActionID(groupID),
		GroupID:           groupID,
		Name:              name,
		TypeKey:           typeCfg.Key,
		ParticipantIDs:    []types.UserID{},
		ChannelID:         channelID,
		MessageID:         messageID,
		Status:            types.ActionStatusOpen,
		CreatedAt:         r.now().UTC(),
		Capacity:          typeCfg.Capacity,
		HasRoleA:          typeCfg.HasRoleA,
		HasRoleB:          typeCfg.HasRoleB,
		RequiresGatedRole: typeCfg.RequiresGatedRole,
		DisplayName:       displayName,
	}

	r.actions[action.ID] = action
	r.persist(ctx, action)

	logging.From(ctx).Info("action created",
		"action_id", action.ID, "group_id", groupID, "type_key", action.TypeKey)
	return action.Clone(), nil
}

// Get returns a copy of the action, or nil and false if absent
func (r *Registry) Get(id types.ActionID) (*model.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[id]
	if !ok {
		return nil, false
	}
	return action.Clone(), true
}

// ListGroupActions returns the group's actions, open ones only unless
// includeClosed is set
func (r *Registry) ListGroupActions(groupID types.GroupID, includeClosed bool) []*model.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Action
	for _, action := range r.actions {
		if action.GroupID != groupID {
			continue
		}
		if !includeClosed && !action.IsOpen() {
			continue
		}
		result = append(result, action.Clone())
	}
	return result
}

// ClaimCoordinator assigns the coordinator slot. Fails if the action is
// absent, not open, or already has a coordinator. Role gating is the
// caller's concern (see CanClaimCoordinator).
func (r *Registry) ClaimCoordinator(ctx context.Context, id types.ActionID, userID types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.IsOpen() || !action.CoordinatorID.Empty() {
		return false
	}

	action.CoordinatorID = userID
	r.persist(ctx, action)
	return true
}

// ClaimRoleA assigns the role A slot. Openness is required for sub-task
// claims just like for the coordinator claim.
func (r *Registry) ClaimRoleA(ctx context.Context, id types.ActionID, userID types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.IsOpen() || !action.HasRoleA || !action.RoleAID.Empty() {
		return false
	}

	// Claiming a role does not add the user to the roster
	action.RoleAID = userID
	r.persist(ctx, action)
	return true
}

// ClaimRoleB assigns the role B slot
func (r *Registry) ClaimRoleB(ctx context.Context, id types.ActionID, userID types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.IsOpen() || !action.HasRoleB || !action.RoleBID.Empty() {
		return false
	}

	action.RoleBID = userID
	r.persist(ctx, action)
	return true
}

// AddParticipant joins a user to the roster of an open action
func (r *Registry) AddParticipant(ctx context.Context, id types.ActionID, userID types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.IsOpen() {
		return false
	}
	if !action.AddParticipant(userID) {
		return false
	}

	r.persist(ctx, action)
	return true
}

// RemoveParticipant removes a user from the roster. Allowed on closed
// actions so rosters can be corrected before a result is recorded.
func (r *Registry) RemoveParticipant(ctx context.Context, id types.ActionID, userID types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.RemoveParticipant(userID) {
		return false
	}

	r.persist(ctx, action)
	return true
}

// Close transitions an open action to closed
func (r *Registry) Close(ctx context.Context, id types.ActionID, actor types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.Close(actor, r.now().UTC()) {
		return false
	}

	r.persist(ctx, action)
	return true
}

// Reopen returns a closed action without a result to the open state
func (r *Registry) Reopen(ctx context.Context, id types.ActionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.Reopen() {
		return false
	}

	r.persist(ctx, action)
	return true
}

// SetResult records the outcome of a closed action
func (r *Registry) SetResult(ctx context.Context, id types.ActionID, result types.ActionResult, actor types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.SetResult(result, actor, r.now().UTC()) {
		return false
	}

	r.persist(ctx, action)
	return true
}

// ForceResult records an outcome from open or closed state, closing
// first when needed with the same actor
func (r *Registry) ForceResult(ctx context.Context, id types.ActionID, result types.ActionResult, actor types.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.ForceResult(result, actor, r.now().UTC()) {
		return false
	}

	r.persist(ctx, action)
	return true
}

// MarkInactive records inactivity as the final outcome
func (r *Registry) MarkInactive(ctx context.Context, id types.ActionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok || !action.MarkInactive(r.now().UTC()) {
		return false
	}

	r.persist(ctx, action)
	return true
}

// MarkInactivityWarned records that the warning notice went out. Only the
// active-set store is rewritten; the warning timestamp is operational
// bookkeeping, not lifecycle history.
func (r *Registry) MarkInactivityWarned(ctx context.Context, id types.ActionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	action, ok := r.actions[id]
	if !ok {
		return false
	}

	action.MarkInactivityWarned(r.now().UTC())
	r.persistActiveOnly(ctx)
	return true
}

// Delete removes the action from the active set. The history store keeps
// its last persisted snapshot.
func (r *Registry) Delete(ctx context.Context, id types.ActionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.actions[id]; !ok {
		return false
	}

	delete(r.actions, id)
	r.persistActiveOnly(ctx)
	return true
}

// ActionsNeedingWarning returns actions without a result, not yet warned,
// older than the threshold
func (r *Registry) ActionsNeedingWarning(thresholdHours float64) []*model.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var result []*model.Action
	for _, action := range r.actions {
		if action.HasResult() || action.InactivityWarnedAt != nil {
			continue
		}
		if action.HoursSinceCreation(now) >= thresholdHours {
			result = append(result, action.Clone())
		}
	}
	return result
}

// ActionsNeedingClose returns actions without a result older than the
// threshold. Independent of the warning scan: an action needs closing
// whether or not a warning ever went out.
func (r *Registry) ActionsNeedingClose(thresholdHours float64) []*model.Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var result []*model.Action
	for _, action := range r.actions {
		if action.HasResult() {
			continue
		}
		if action.HoursSinceCreation(now) >= thresholdHours {
			result = append(result, action.Clone())
		}
	}
	return result
}

// LoadHistory returns the full history store, windowed to the last
// days*24 hours when days is positive
func (r *Registry) LoadHistory(ctx context.Context, days int) ([]*model.Action, error) {
	history, err := r.repo.LoadHistory(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load action history")
	}

	if days <= 0 {
		return history, nil
	}

	cutoff := r.now().Add(-time.Duration(days) * 24 * time.Hour)
	var result []*model.Action
	for _, action := range history {
		if !action.CreatedAt.Before(cutoff) {
			result = append(result, action)
		}
	}
	return result, nil
}
