package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithiin7/lang2query/pkg/domain"
)

func sampleState(runID string) *domain.State {
	st := domain.NewState(runID, "total sales", domain.ModeNormal, 3, 2)
	st.RelevantDatabases = []string{"sales"}
	return &st
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", sampleState("run-1")))

	got, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, []string{"sales"}, got.RelevantDatabases)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", sampleState("run-1")))
	require.NoError(t, store.Save(ctx, "sid", sampleState("run-2")))

	got, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
}

func TestStore_LoadMissing(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_DeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid", sampleState("run-1")))
	require.NoError(t, store.Delete(ctx, "sid"))

	_, err := os.Stat(filepath.Join(dir, "sid.json"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Delete(ctx, "sid"), domain.ErrSessionNotFound)
}

func TestStore_ListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", sampleState("run-1")))
	require.NoError(t, store.Save(ctx, "b", sampleState("run-2")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-c-123.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestStore_EmptySessionID(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", sampleState("run-1")))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, ""))
}

func TestStore_ListMissingDirectory(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "never-created"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
