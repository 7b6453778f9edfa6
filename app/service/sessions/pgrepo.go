package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

const schema = `
CREATE TABLE IF NOT EXISTS bot_sessions (
	session_key  UUID PRIMARY KEY,
	user_id      BIGINT NOT NULL,
	username     TEXT NOT NULL DEFAULT '',
	first_name   TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	messages     INT NOT NULL DEFAULT 0,
	intents      TEXT[] NOT NULL DEFAULT '{}',
	lead_id      TEXT NOT NULL DEFAULT '',
	converted_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_bot_sessions_user_id ON bot_sessions (user_id, started_at DESC);
`

type pgRepo struct {
	pool *pgxpool.Pool
}

func newPGRepo(ctx context.Context, pool *pgxpool.Pool) (*pgRepo, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, oops.Errorf("failed to create bot_sessions table: %w", err)
	}

	return &pgRepo{pool: pool}, nil
}

func (r *pgRepo) Active(ctx context.Context, userID int64) (*Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT session_key, user_id, username, first_name, started_at,
		       messages, intents, lead_id, converted_at
		FROM bot_sessions
		WHERE user_id = $1
		ORDER BY started_at DESC
		LIMIT 1`, userID)

	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Errorf("failed to load session: %w", err)
	}

	return session, nil
}

func (r *pgRepo) Start(ctx context.Context, userID int64, username, firstName string) (*Session, error) {
	session := &Session{
		Key:       uuid.NewString(),
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		StartedAt: time.Now(),
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO bot_sessions (session_key, user_id, username, first_name, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.Key, session.UserID, session.Username, session.FirstName, session.StartedAt)
	if err != nil {
		return nil, oops.Errorf("failed to start session: %w", err)
	}

	return session, nil
}

func (r *pgRepo) AddMessage(ctx context.Context, key string, intent string) error {
	var err error

	if intent != "" {
		_, err = r.pool.Exec(ctx, `
			UPDATE bot_sessions
			SET messages = messages + 1, intents = array_append(intents, $2)
			WHERE session_key = $1`, key, intent)
	} else {
		_, err = r.pool.Exec(ctx, `
			UPDATE bot_sessions
			SET messages = messages + 1
			WHERE session_key = $1`, key)
	}

	if err != nil {
		return oops.Errorf("failed to record session message: %w", err)
	}

	return nil
}

func (r *pgRepo) ConvertToLead(ctx context.Context, key string, leadID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bot_sessions
		SET lead_id = $2, converted_at = now()
		WHERE session_key = $1 AND lead_id = ''`, key, leadID)
	if err != nil {
		return oops.Errorf("failed to mark session converted: %w", err)
	}

	return nil
}

func (r *pgRepo) FindLead(ctx context.Context, key string) (string, error) {
	var leadID string

	err := r.pool.QueryRow(ctx,
		`SELECT lead_id FROM bot_sessions WHERE session_key = $1`, key).
		Scan(&leadID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", oops.Errorf("failed to look up session lead: %w", err)
	}

	return leadID, nil
}

func (r *pgRepo) Totals(ctx context.Context) (Totals, error) {
	var totals Totals

	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       coalesce(sum(messages), 0),
		       count(*) FILTER (WHERE lead_id <> '')
		FROM bot_sessions`).
		Scan(&totals.Sessions, &totals.Messages, &totals.Leads)
	if err != nil {
		return Totals{}, oops.Errorf("failed to load session totals: %w", err)
	}

	return totals, nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var session Session

	err := row.Scan(
		&session.Key,
		&session.UserID,
		&session.Username,
		&session.FirstName,
		&session.StartedAt,
		&session.Messages,
		&session.Intents,
		&session.LeadID,
		&session.ConvertedAt,
	)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
