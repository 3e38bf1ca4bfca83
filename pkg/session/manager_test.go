package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
	"github.com/nithiin7/lang2query/pkg/session"
)

// SlowStore simulates IO latency to provoke races if locking is missing.
type SlowStore struct {
	data map[string]*domain.State
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.State)
	}
	s.data[sessionID] = state
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newState(runID string) *domain.State {
	st := domain.NewState(runID, "total sales", domain.ModeNormal, 3, 2)
	return &st
}

func TestManager_ConcurrentSavesAreSerialized(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	require.NoError(t, manager.Save(ctx, id, newState("run-0")))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Save(ctx, id, newState("run-n")))
		}()
	}
	wg.Wait()

	st, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "run-n", st.RunID)
}

func TestManager_LoadMissing(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	_, err := manager.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_DeleteMissingIsNoop(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	assert.NoError(t, manager.Delete(context.Background(), "nope"))
}

// fakeLocker records lock traffic for assertions.
type fakeLocker struct {
	mu       sync.Mutex
	locked   int
	unlocked int
	fail     bool
}

func (f *fakeLocker) Lock(_ context.Context, _ string, _ time.Duration) (ports.UnlockFunc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("lock backend down")
	}
	f.locked++
	return func(context.Context) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLockerWrapsEveryOperation(t *testing.T) {
	locker := &fakeLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "sid", newState("run-1")))
	_, err := manager.Load(ctx, "sid")
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "sid"))

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Equal(t, 3, locker.locked)
	assert.Equal(t, 3, locker.unlocked, "every acquired lock must be released")
}

func TestManager_LockFailureSurfaces(t *testing.T) {
	manager := session.NewManager(&SlowStore{}, session.WithLocker(&fakeLocker{fail: true}))

	err := manager.Save(context.Background(), "sid", newState("run-1"))
	assert.Error(t, err)
}
