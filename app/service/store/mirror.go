package store

import (
	"context"
	"log/slog"
)

// Mirror pairs the durable backend with the file-backed one. Reads prefer
// the durable side and degrade silently; writes go to both. The two sides
// are not updated transactionally: after a partial failure they can
// disagree, which is why the lead gate treats its checks as advisory.
type Mirror struct {
	durable  Store
	fallback Store
}

func NewMirror(durable, fallback Store) *Mirror {
	return &Mirror{
		durable:  durable,
		fallback: fallback,
	}
}

func (m *Mirror) Get(ctx context.Context, userID int64) (*State, error) {
	state, err := m.durable.Get(ctx, userID)
	if err != nil {
		slog.Warn("Durable store read failed, falling back to file",
			"user_id", userID,
			"error", err,
		)

		return m.fallback.Get(ctx, userID)
	}

	return state, nil
}

func (m *Mirror) Update(ctx context.Context, userID int64, ch Changes) (*State, error) {
	state, durableErr := m.durable.Update(ctx, userID, ch)
	if durableErr != nil {
		slog.Error("Durable store write failed",
			"user_id", userID,
			"error", durableErr,
		)
	}

	fileState, fileErr := m.fallback.Update(ctx, userID, ch)
	if fileErr != nil {
		slog.Error("File store write failed",
			"user_id", userID,
			"error", fileErr,
		)
	}

	if durableErr == nil {
		return state, nil
	}

	if fileErr == nil {
		return fileState, nil
	}

	return nil, durableErr
}

func (m *Mirror) Reset(ctx context.Context, userID int64) error {
	durableErr := m.durable.Reset(ctx, userID)
	if durableErr != nil {
		slog.Error("Durable store reset failed",
			"user_id", userID,
			"error", durableErr,
		)
	}

	if err := m.fallback.Reset(ctx, userID); err != nil {
		slog.Error("File store reset failed",
			"user_id", userID,
			"error", err,
		)

		if durableErr == nil {
			return nil
		}

		return err
	}

	return nil
}
