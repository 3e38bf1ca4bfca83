package ports

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// StateStore persists run state snapshots for the lifetime of a session.
// Snapshots let an operator inspect in-flight runs and let the session layer
// survive transport hiccups; they are deleted when the run terminates.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the session IDs with stored state.
	List(ctx context.Context) ([]string, error)
}
