package store

import (
	"context"
	"log/slog"
	"path/filepath"

	"maxbot/app/client/pg"

	"github.com/samber/do"
)

var stateFilePath = filepath.Join("data", "conversations.json")

// New wires the backend stack: file-only when Postgres is not configured,
// otherwise the durable store mirrored onto the file one. Consumers only
// ever see the Store interface.
func New(di *do.Injector) (Store, error) {
	ctx := do.MustInvoke[context.Context](di)
	pgClient := do.MustInvoke[*pg.Client](di)

	fileStore, err := NewFileStore(stateFilePath)
	if err != nil {
		return nil, err
	}

	if !pgClient.Enabled() {
		slog.Info("Conversation store running on file backend only")
		return fileStore, nil
	}

	pgStore, err := NewPGStore(ctx, pgClient.Pool)
	if err != nil {
		return nil, err
	}

	return NewMirror(pgStore, fileStore), nil
}
