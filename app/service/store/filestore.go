package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/samber/oops"
)

// FileStore keeps every conversation in a single JSON map keyed by the
// stringified user id, rewritten atomically on every mutation. It is the
// fallback backend when Postgres is not configured or not reachable.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	states map[string]*State
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, oops.Errorf("failed to create state directory: %w", err)
	}

	s := &FileStore{
		path:   path,
		states: map[string]*State{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}

		return nil, oops.Errorf("failed to read state file: %w", err)
	}

	if err = json.Unmarshal(data, &s.states); err != nil {
		return nil, oops.Errorf("failed to parse state file: %w", err)
	}

	return s, nil
}

func (s *FileStore) Get(_ context.Context, userID int64) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(userID, 10)

	state, ok := s.states[key]
	if !ok {
		state = newState(userID)
		s.states[key] = state

		if err := s.flush(); err != nil {
			return nil, err
		}
	}

	return state.clone(), nil
}

func (s *FileStore) Update(_ context.Context, userID int64, ch Changes) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strconv.FormatInt(userID, 10)

	state, ok := s.states[key]
	if !ok {
		state = newState(userID)
		s.states[key] = state
	}

	state.apply(ch, time.Now())

	if err := s.flush(); err != nil {
		return nil, err
	}

	return state.clone(), nil
}

func (s *FileStore) Reset(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, strconv.FormatInt(userID, 10))

	return s.flush()
}

// flush writes the whole map to a temp file and renames it over the live
// one, so readers never observe a partial write. Callers hold the lock.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.states, "", "  ")
	if err != nil {
		return oops.Errorf("failed to marshal states: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return oops.Errorf("failed to write state file: %w", err)
	}

	if err = os.Rename(tmp, s.path); err != nil {
		return oops.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
