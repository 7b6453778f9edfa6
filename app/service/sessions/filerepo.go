package sessions

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// fileRepo mirrors the Postgres session repo onto a single JSON file for
// deployments without a database.
type fileRepo struct {
	mu       sync.RWMutex
	path     string
	sessions map[string]*Session
}

func newFileRepo(path string) (*fileRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, oops.Errorf("failed to create stats directory: %w", err)
	}

	r := &fileRepo{
		path:     path,
		sessions: map[string]*Session{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}

		return nil, oops.Errorf("failed to read stats file: %w", err)
	}

	if err = json.Unmarshal(data, &r.sessions); err != nil {
		return nil, oops.Errorf("failed to parse stats file: %w", err)
	}

	return r, nil
}

func (r *fileRepo) Active(_ context.Context, userID int64) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Session
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}

		if latest == nil || s.StartedAt.After(latest.StartedAt) {
			latest = s
		}
	}

	if latest == nil {
		return nil, nil
	}

	result := *latest
	return &result, nil
}

func (r *fileRepo) Start(_ context.Context, userID int64, username, firstName string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := &Session{
		Key:       uuid.NewString(),
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		StartedAt: time.Now(),
	}

	r.sessions[session.Key] = session

	if err := r.flush(); err != nil {
		return nil, err
	}

	result := *session
	return &result, nil
}

func (r *fileRepo) AddMessage(_ context.Context, key string, intent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[key]
	if !ok {
		return nil
	}

	session.Messages++
	if intent != "" {
		session.Intents = append(session.Intents, intent)
	}

	return r.flush()
}

func (r *fileRepo) ConvertToLead(_ context.Context, key string, leadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[key]
	if !ok || session.LeadID != "" {
		return nil
	}

	now := time.Now()
	session.LeadID = leadID
	session.ConvertedAt = &now

	return r.flush()
}

func (r *fileRepo) FindLead(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if session, ok := r.sessions[key]; ok {
		return session.LeadID, nil
	}

	return "", nil
}

func (r *fileRepo) Totals(_ context.Context) (Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var totals Totals
	for _, s := range r.sessions {
		totals.Sessions++
		totals.Messages += s.Messages
		if s.LeadID != "" {
			totals.Leads++
		}
	}

	return totals, nil
}

func (r *fileRepo) flush() error {
	data, err := json.MarshalIndent(r.sessions, "", "  ")
	if err != nil {
		return oops.Errorf("failed to marshal sessions: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return oops.Errorf("failed to write stats file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		return oops.Errorf("failed to replace stats file: %w", err)
	}

	return nil
}
