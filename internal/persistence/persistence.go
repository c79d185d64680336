// Package persistence keeps the store's view state (filter, pagination,
// lastUpdated) across restarts. Entity data is never persisted; the store
// always re-fetches it from the remote service.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"product-admin/internal/models"
)

// StateKey is the storage key the view state lives under.
const StateKey = "product-store"

// State is the JSON-serialized view state surviving restarts.
type State struct {
	Filter      models.ProductFilter `json:"filter"`
	Pagination  models.Pagination    `json:"pagination"`
	LastUpdated time.Time            `json:"lastUpdated"`
}

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("no persisted state")

// Store loads and saves the view state.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// FileStore persists the state as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing or corrupt file yields ErrNoState so
// callers can start from defaults.
func (s *FileStore) Load(_ context.Context) (*State, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var doc map[string]*State
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ErrNoState
	}
	state, ok := doc[StateKey]
	if !ok || state == nil {
		return nil, ErrNoState
	}
	return state, nil
}

// Save writes the state file atomically (write temp, rename).
func (s *FileStore) Save(_ context.Context, state *State) error {
	raw, err := json.MarshalIndent(map[string]*State{StateKey: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
