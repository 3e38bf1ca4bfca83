package domain

// DecisionKind tags the routing outcome a stage proposes.
type DecisionKind string

const (
	// DecisionAdvance moves the run to the next step in the graph.
	DecisionAdvance DecisionKind = "advance"
	// DecisionRetry re-runs work: either the same stage, or the generator
	// when issued by the validator (local regeneration).
	DecisionRetry DecisionKind = "retry"
	// DecisionReview suspends the run until human feedback arrives.
	DecisionReview DecisionKind = "review"
	// DecisionFail reports a stage failure; the retry policy decides
	// whether the run re-enters the stage or terminates.
	DecisionFail DecisionKind = "fail"
)

// Decision is the tagged union every stage returns alongside its new state.
// The orchestrator owns all control flow; a stage only proposes.
type Decision struct {
	Kind DecisionKind

	// Target optionally selects a branch for advance/retry decisions. It must
	// be one of the targets the transition table allows for the current step;
	// anything else is a protocol violation.
	Target Step

	// Review carries the proposed items when Kind == DecisionReview.
	Review *PendingReview

	// Reason describes retry and fail decisions.
	Reason string
}

// Advance proposes moving to the default next step.
func Advance() Decision {
	return Decision{Kind: DecisionAdvance}
}

// AdvanceTo proposes moving to a specific allowed branch.
func AdvanceTo(target Step) Decision {
	return Decision{Kind: DecisionAdvance, Target: target}
}

// RetryStage proposes re-running work after a recoverable failure.
func RetryStage(reason string) Decision {
	return Decision{Kind: DecisionRetry, Reason: reason}
}

// RetryAt proposes re-running from a specific allowed backtrack target.
func RetryAt(target Step, reason string) Decision {
	return Decision{Kind: DecisionRetry, Target: target, Reason: reason}
}

// RequestReview proposes suspending the run for human review of items.
func RequestReview(reviewType ReviewType, items []string) Decision {
	return Decision{Kind: DecisionReview, Review: &PendingReview{Type: reviewType, Items: items}}
}

// Fail reports an unrecoverable stage outcome.
func Fail(reason string) Decision {
	return Decision{Kind: DecisionFail, Reason: reason}
}
