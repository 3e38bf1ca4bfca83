package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithiin7/lang2query/pkg/domain"
)

func TestStore_SaveLoadDelete(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	st := domain.NewState("run-1", "total sales", domain.ModeNormal, 3, 2)
	st.RelevantDatabases = []string{"sales"}
	require.NoError(t, store.Save(ctx, "sid", &st))

	got, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, []string{"sales"}, got.RelevantDatabases)

	require.NoError(t, store.Delete(ctx, "sid"))
	_, err = store.Load(ctx, "sid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_DeleteMissing(t *testing.T) {
	store := NewStore()
	err := store.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStore_IsolatesStoredState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	st := domain.NewState("run-1", "q", domain.ModeNormal, 3, 2)
	st.RelevantDatabases = []string{"sales"}
	require.NoError(t, store.Save(ctx, "sid", &st))

	// Mutating the caller's copy must not change what is stored.
	st.RelevantDatabases[0] = "mutated"

	got, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, got.RelevantDatabases)

	// Mutating a loaded copy must not change what is stored.
	got.RelevantDatabases[0] = "mutated"
	again, err := store.Load(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, again.RelevantDatabases)
}

func TestStore_List(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	st := domain.NewState("run-1", "q", domain.ModeNormal, 3, 2)
	require.NoError(t, store.Save(ctx, "a", &st))
	require.NoError(t, store.Save(ctx, "b", &st))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
