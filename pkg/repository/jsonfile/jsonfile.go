package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/gyges/pkg/domain/interfaces"
	"github.com/secmon-lab/gyges/pkg/domain/model"
	"github.com/secmon-lab/gyges/pkg/domain/types"
	"github.com/secmon-lab/gyges/pkg/utils/logging"
)

const (
	activeFileName  = "active_actions.json"
	historyFileName = "actions_history.json"
)

// Repository persists actions to two JSON files under a data directory:
// an active-set snapshot rewritten in full on every save, and a history
// log with one entry per action ID. Writes go through a temp file and
// rename so a crash mid-write never truncates the previous snapshot.
type Repository struct {
	mu          sync.Mutex
	activePath  string
	historyPath string
}

var _ interfaces.Repository = &Repository{}

// New creates the data directory if needed and returns the repository
func New(dataDir string) (*Repository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dataDir))
	}
	return &Repository{
		activePath:  filepath.Join(dataDir, activeFileName),
		historyPath: filepath.Join(dataDir, historyFileName),
	}, nil
}

func (r *Repository) SaveActive(ctx context.Context, actions map[types.ActionID]*model.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return writeJSON(r.activePath, actions)
}

func (r *Repository) LoadActive(ctx context.Context) (map[types.ActionID]*model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[types.ActionID]*model.Action)

	data, err := os.ReadFile(r.activePath)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read active store", goerr.V("path", r.activePath))
	}

	var raw map[types.ActionID]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "failed to parse active store", goerr.V("path", r.activePath))
	}

	for id, record := range raw {
		var action model.Action
		if err := json.Unmarshal(record, &action); err != nil {
			// A single bad record must not take down the whole load
			logging.From(ctx).Error("skipping malformed active record",
				"id", id, "error", err.Error())
			continue
		}
		result[id] = &action
	}

	return result, nil
}

func (r *Repository) UpsertHistory(ctx context.Context, action *model.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.readHistoryRaw()
	if err != nil {
		return err
	}

	record, err := json.Marshal(action)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal history entry", goerr.V("id", action.ID))
	}

	replaced := false
	for i, entry := range entries {
		if entryID(entry) == action.ID {
			entries[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, record)
	}

	return writeJSON(r.historyPath, entries)
}

func (r *Repository) LoadHistory(ctx context.Context) ([]*model.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.readHistoryRaw()
	if err != nil {
		return nil, err
	}

	result := make([]*model.Action, 0, len(entries))
	for _, entry := range entries {
		var action model.Action
		if err := json.Unmarshal(entry, &action); err != nil {
			logging.From(ctx).Error("skipping malformed history record",
				"error", err.Error())
			continue
		}
		result = append(result, &action)
	}

	return result, nil
}

func (r *Repository) readHistoryRaw() ([]json.RawMessage, error) {
	data, err := os.ReadFile(r.historyPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read history store", goerr.V("path", r.historyPath))
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, goerr.Wrap(err, "failed to parse history store", goerr.V("path", r.historyPath))
	}
	return entries, nil
}

func entryID(entry json.RawMessage) types.ActionID {
	var probe struct {
		ID types.ActionID `json:"id"`
	}
	if err := json.Unmarshal(entry, &probe); err != nil {
		return ""
	}
	return probe.ID
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal store", goerr.V("path", path))
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write store", goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return goerr.Wrap(err, "failed to replace store", goerr.V("path", path))
	}
	return nil
}
