package domain

import (
	"context"
	"time"
)

// EventType categorizes what a run pushed onto its outbound queue.
type EventType string

const (
	// EventStateUpdate is emitted once per step transition, in order.
	EventStateUpdate EventType = "state_update"
	// EventReviewRequested is emitted when a run suspends for human review.
	EventReviewRequested EventType = "hitl_request"
	// EventFeedbackAck acknowledges receipt of review feedback.
	EventFeedbackAck EventType = "hitl_feedback_ack"
	// EventFinalResult is emitted exactly once on successful or exhausted
	// termination.
	EventFinalResult EventType = "final_result"
	// EventCancelled is emitted exactly once, in place of a final result.
	EventCancelled EventType = "cancelled"
	// EventError is emitted on fatal, non-retryable failure.
	EventError EventType = "error"
)

// Event is one message on a run's outbound queue. Exactly one terminal event
// (final_result, cancelled, or error) closes the queue.
type Event struct {
	Type         EventType   `json:"type"`
	NodeName     string      `json:"node_name,omitempty"`
	State        *State      `json:"state,omitempty"`
	Checkpoint   *Checkpoint `json:"checkpoint,omitempty"`
	CheckpointID string      `json:"checkpointId,omitempty"`
	Result       *Result     `json:"result,omitempty"`
	Message      string      `json:"message,omitempty"`
}

// Terminal reports whether e closes the run's queue.
func (e Event) Terminal() bool {
	switch e.Type {
	case EventFinalResult, EventCancelled, EventError:
		return true
	}
	return false
}

// StageEvent describes entry into or exit from a stage execution.
type StageEvent struct {
	Timestamp time.Time
	RunID     string
	Stage     string
	Step      Step
	Duration  time.Duration // set on leave only
}

// RetryEvent describes a consumed retry or regeneration attempt.
type RetryEvent struct {
	Timestamp   time.Time
	RunID       string
	Stage       string
	Reason      string
	RunLevel    bool // false for local regeneration
	RetriesLeft int
}

// CheckpointEvent describes a checkpoint opening or resolving.
type CheckpointEvent struct {
	Timestamp    time.Time
	RunID        string
	CheckpointID string
	Type         ReviewType
	Action       ReviewAction // set on resolve only
}

// TerminalEvent describes the end of a run.
type TerminalEvent struct {
	Timestamp time.Time
	RunID     string
	Outcome   Step
	Duration  time.Duration
}

// LifecycleHooks receives observability callbacks from the orchestrator.
// All fields are optional; nil hooks are skipped.
type LifecycleHooks struct {
	OnStageEnter        func(context.Context, *StageEvent)
	OnStageLeave        func(context.Context, *StageEvent)
	OnRetry             func(context.Context, *RetryEvent)
	OnCheckpointOpen    func(context.Context, *CheckpointEvent)
	OnCheckpointResolve func(context.Context, *CheckpointEvent)
	OnTerminal          func(context.Context, *TerminalEvent)
}
