package runtime

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// CheckpointManager owns the single outstanding checkpoint of a run. The
// orchestrator only observes its presence through State.PendingReview; the
// transport only sees the Checkpoint value emitted with hitl_request.
type CheckpointManager struct {
	pending *domain.Checkpoint
	owner   domain.Step
	newID   func() string
}

// NewCheckpointManager returns a manager scoped to one run.
func NewCheckpointManager() *CheckpointManager {
	return &CheckpointManager{newID: uuid.NewString}
}

// Open creates the pending checkpoint for a review request. A second request
// while one is outstanding is a contract violation and must fail the run
// rather than silently overwrite.
func (m *CheckpointManager) Open(owner domain.Step, rt domain.ReviewType, items []string) (*domain.Checkpoint, error) {
	if m.pending != nil {
		return nil, fmt.Errorf("%w: review %s requested while checkpoint %s is pending",
			domain.ErrProtocolViolation, rt, m.pending.ID)
	}
	if !rt.Valid() {
		return nil, fmt.Errorf("%w: unknown review type %q", domain.ErrProtocolViolation, rt)
	}
	m.pending = &domain.Checkpoint{ID: m.newID(), Type: rt, Items: items}
	m.owner = owner
	return m.pending, nil
}

// Pending returns the outstanding checkpoint, or nil.
func (m *CheckpointManager) Pending() *domain.Checkpoint {
	return m.pending
}

// Owner returns the completion step whose stage requested the pending review.
func (m *CheckpointManager) Owner() domain.Step {
	return m.owner
}

// Resolve validates feedback against the pending checkpoint and destroys it.
// Feedback for a checkpoint id that is not the pending one, including stale
// feedback after a reconnect, is a protocol violation.
func (m *CheckpointManager) Resolve(fb domain.ReviewFeedback) (*domain.Checkpoint, error) {
	if m.pending == nil {
		return nil, fmt.Errorf("%w: feedback received with no checkpoint pending", domain.ErrProtocolViolation)
	}
	if fb.CheckpointID != m.pending.ID {
		return nil, fmt.Errorf("%w: feedback for checkpoint %s but %s is pending",
			domain.ErrProtocolViolation, fb.CheckpointID, m.pending.ID)
	}
	if fb.Type != m.pending.Type {
		return nil, fmt.Errorf("%w: feedback review type %s does not match pending %s",
			domain.ErrProtocolViolation, fb.Type, m.pending.Type)
	}
	if !fb.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown review action %q", domain.ErrProtocolViolation, fb.Action)
	}
	cp := m.pending
	m.pending = nil
	m.owner = ""
	return cp, nil
}

// Discard drops the pending checkpoint without resolving it, used on
// cancellation.
func (m *CheckpointManager) Discard() {
	m.pending = nil
	m.owner = ""
}
