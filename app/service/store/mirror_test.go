package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type faultyStore struct {
	inner   Store
	getErr  error
	updErr  error
	updates int
}

func (f *faultyStore) Get(ctx context.Context, userID int64) (*State, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.inner.Get(ctx, userID)
}

func (f *faultyStore) Update(ctx context.Context, userID int64, ch Changes) (*State, error) {
	f.updates++
	if f.updErr != nil {
		return nil, f.updErr
	}
	return f.inner.Update(ctx, userID, ch)
}

func (f *faultyStore) Reset(ctx context.Context, userID int64) error {
	return f.inner.Reset(ctx, userID)
}

func newMirrorEnv(t *testing.T) (*Mirror, *faultyStore, *FileStore) {
	t.Helper()

	dir := t.TempDir()
	durableInner, err := NewFileStore(filepath.Join(dir, "durable.json"))
	require.NoError(t, err)
	fallback, err := NewFileStore(filepath.Join(dir, "fallback.json"))
	require.NoError(t, err)

	durable := &faultyStore{inner: durableInner}
	return NewMirror(durable, fallback), durable, fallback
}

func TestMirror_WritesBothSides(t *testing.T) {
	mirror, durable, fallback := newMirrorEnv(t)
	ctx := context.Background()

	state, err := mirror.Update(ctx, 42, Changes{UserMessage: "привет"})
	require.NoError(t, err)
	require.Len(t, state.History, 1)
	require.Equal(t, 1, durable.updates)

	mirrored, err := fallback.Get(ctx, 42)
	require.NoError(t, err)
	require.Len(t, mirrored.History, 1)
}

func TestMirror_DurableWriteFailureDegradesToFile(t *testing.T) {
	mirror, durable, _ := newMirrorEnv(t)
	durable.updErr = errors.New("connection refused")
	ctx := context.Background()

	state, err := mirror.Update(ctx, 42, Changes{UserMessage: "привет"})
	require.NoError(t, err)
	require.Len(t, state.History, 1)
}

func TestMirror_ReadPrefersDurableAndFallsBack(t *testing.T) {
	mirror, durable, _ := newMirrorEnv(t)
	ctx := context.Background()

	_, err := mirror.Update(ctx, 42, Changes{Phase: PhaseConsulting})
	require.NoError(t, err)

	state, err := mirror.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, PhaseConsulting, state.Phase)

	durable.getErr = errors.New("connection refused")
	state, err = mirror.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, PhaseConsulting, state.Phase)
}

func TestMirror_ResetClearsBothSides(t *testing.T) {
	mirror, durable, fallback := newMirrorEnv(t)
	ctx := context.Background()

	_, err := mirror.Update(ctx, 42, Changes{Phase: PhaseCompleted})
	require.NoError(t, err)

	require.NoError(t, mirror.Reset(ctx, 42))

	state, err := durable.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, PhaseGreeting, state.Phase)

	state, err = fallback.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, PhaseGreeting, state.Phase)
}
