package sessions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*fileRepo, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sessions.json")
	r, err := newFileRepo(path)
	require.NoError(t, err)

	return r, path
}

func TestFileRepo_StartAndActive(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	none, err := r.Active(ctx, 42)
	require.NoError(t, err)
	require.Nil(t, none)

	first, err := r.Start(ctx, 42, "ivan", "Иван")
	require.NoError(t, err)
	require.NotEmpty(t, first.Key)

	second, err := r.Start(ctx, 42, "ivan", "Иван")
	require.NoError(t, err)
	require.NotEqual(t, first.Key, second.Key)

	active, err := r.Active(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, second.Key, active.Key)
}

func TestFileRepo_ConvertToLeadIsIdempotent(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	session, err := r.Start(ctx, 42, "ivan", "Иван")
	require.NoError(t, err)

	require.NoError(t, r.ConvertToLead(ctx, session.Key, "101"))
	require.NoError(t, r.ConvertToLead(ctx, session.Key, "202"))

	leadID, err := r.FindLead(ctx, session.Key)
	require.NoError(t, err)
	require.Equal(t, "101", leadID)
}

func TestFileRepo_TotalsAndReload(t *testing.T) {
	r, path := newTestRepo(t)
	ctx := context.Background()

	converted, err := r.Start(ctx, 1, "a", "A")
	require.NoError(t, err)
	require.NoError(t, r.AddMessage(ctx, converted.Key, "invest"))
	require.NoError(t, r.AddMessage(ctx, converted.Key, ""))
	require.NoError(t, r.ConvertToLead(ctx, converted.Key, "101"))

	_, err = r.Start(ctx, 2, "b", "B")
	require.NoError(t, err)

	reloaded, err := newFileRepo(path)
	require.NoError(t, err)

	totals, err := reloaded.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, totals.Sessions)
	require.Equal(t, 2, totals.Messages)
	require.Equal(t, 1, totals.Leads)

	session, err := reloaded.Active(ctx, 1)
	require.NoError(t, err)
	require.Len(t, session.Intents, 1)
	require.Equal(t, "invest", session.Intents[0])
}

func TestFileRepo_UnknownKeyIsHarmless(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "missing", "invest"))
	require.NoError(t, r.ConvertToLead(ctx, "missing", "101"))

	leadID, err := r.FindLead(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, leadID)
}
