package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_states (
	user_id    BIGINT PRIMARY KEY,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PGStore is the durable backend: one jsonb row per user. Writes are
// committed before Update returns, which gives the orchestrator its
// read-your-writes contract.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, pool *pgxpool.Pool) (*PGStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, oops.Errorf("failed to create conversation_states table: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Get(ctx context.Context, userID int64) (*State, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		state = newState(userID)
		if err = s.save(ctx, state); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func (s *PGStore) Update(ctx context.Context, userID int64, ch Changes) (*State, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		state = newState(userID)
	}

	state.apply(ch, time.Now())

	if err = s.save(ctx, state); err != nil {
		return nil, err
	}

	return state, nil
}

func (s *PGStore) Reset(ctx context.Context, userID int64) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_states WHERE user_id = $1`, userID); err != nil {
		return oops.Errorf("failed to delete conversation state: %w", err)
	}

	return nil
}

func (s *PGStore) load(ctx context.Context, userID int64) (*State, error) {
	var raw []byte

	err := s.pool.QueryRow(ctx,
		`SELECT state FROM conversation_states WHERE user_id = $1`, userID).
		Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Errorf("failed to load conversation state: %w", err)
	}

	var state State
	if err = json.Unmarshal(raw, &state); err != nil {
		return nil, oops.Errorf("failed to parse conversation state: %w", err)
	}

	return &state, nil
}

func (s *PGStore) save(ctx context.Context, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return oops.Errorf("failed to marshal conversation state: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversation_states (user_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET state = $2, updated_at = now()`,
		state.UserID, raw)
	if err != nil {
		return oops.Errorf("failed to save conversation state: %w", err)
	}

	return nil
}
