package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nithiin7/lang2query/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	return nil
}
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func TestManager_LockEntriesDoNotLeak(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.State{})
		_ = mgr.Delete(ctx, sid)
	}

	// Reference counting must drop each entry back to zero once no caller
	// holds the session lock.
	mgr.mu.Lock()
	remaining := len(mgr.locks)
	mgr.mu.Unlock()
	assert.Zero(t, remaining, "lock entries leaked after release")
}
