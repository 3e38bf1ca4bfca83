package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nithiin7/lang2query/internal/logging"
	"github.com/nithiin7/lang2query/pkg/domain"
)

// Engine drives the stage sequence for any number of runs. It is stateless
// across runs: every run gets its own State, checkpoint manager, and event
// queue, so N runs execute independently and concurrently.
type Engine struct {
	registry  *Registry
	table     *Table
	policy    RetryPolicy
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	queueSize int
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) { e.hooks = hooks }
}

// WithRetryPolicy overrides the retry budgets.
func WithRetryPolicy(policy RetryPolicy) EngineOption {
	return func(e *Engine) { e.policy = policy }
}

// WithQueueSize sets the outbound event buffer per run.
func WithQueueSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// NewEngine creates an engine over the given stage registry.
func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:  registry,
		table:     DefaultTable(),
		policy:    DefaultRetryPolicy(),
		logger:    logging.NewNop(),
		queueSize: 64,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table exposes the transition table for inspection tooling.
func (e *Engine) Table() *Table {
	return e.table
}

// NewRun binds a fresh State to the engine. The run does not execute until
// Start is called.
func (e *Engine) NewRun(query string, mode domain.Mode) (*Run, error) {
	query, err := SanitizeQuery(strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if mode == "" {
		mode = domain.ModeNormal
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown interaction mode %q", mode)
	}
	id := uuid.NewString()
	return &Run{
		id:          id,
		eng:         e,
		state:       domain.NewState(id, query, mode, e.policy.RunRetries, e.policy.Regenerations),
		checkpoints: NewCheckpointManager(),
		events:      make(chan domain.Event, e.queueSize),
		feedback:    make(chan domain.ReviewFeedback, 1),
		done:        make(chan struct{}),
		logger:      e.logger.With("run_id", id),
	}, nil
}

// Run is one end-to-end execution of the workflow for a single query. Events
// are emitted in transition order on a single queue; exactly one terminal
// event closes it.
type Run struct {
	id          string
	eng         *Engine
	state       domain.State
	checkpoints *CheckpointManager
	events      chan domain.Event
	feedback    chan domain.ReviewFeedback
	done        chan struct{}
	logger      *slog.Logger

	startOnce sync.Once
	cancelMu  sync.Mutex
	cancelFn  context.CancelFunc

	finalMu sync.Mutex
	final   domain.State
	err     error
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Events returns the outbound queue. It is closed after the terminal event.
func (r *Run) Events() <-chan domain.Event { return r.events }

// Done is closed when the run has terminated.
func (r *Run) Done() <-chan struct{} { return r.done }

// Final returns the terminal state and outcome error. Valid after Done.
func (r *Run) Final() (domain.State, error) {
	r.finalMu.Lock()
	defer r.finalMu.Unlock()
	return r.final, r.err
}

// Start launches the stage loop in its own goroutine. Subsequent calls are
// no-ops.
func (r *Run) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		r.cancelMu.Lock()
		r.cancelFn = cancel
		r.cancelMu.Unlock()
		go r.loop(runCtx)
	})
}

// Cancel requests termination. It takes effect at the next stage boundary and
// unblocks any in-flight collaborator call through context cancellation.
func (r *Run) Cancel() {
	r.cancelMu.Lock()
	cancel := r.cancelFn
	r.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Feedback delivers review feedback to a suspended run. The send is
// non-blocking; feedback while none is awaited is delivered anyway and
// surfaces as a protocol violation at the next boundary.
func (r *Run) Feedback(fb domain.ReviewFeedback) error {
	select {
	case <-r.done:
		return fmt.Errorf("run %s already terminated", r.id)
	default:
	}
	select {
	case r.feedback <- fb:
		return nil
	default:
		return fmt.Errorf("%w: feedback already queued for run %s", domain.ErrProtocolViolation, r.id)
	}
}

func (r *Run) loop(ctx context.Context) {
	defer close(r.done)
	defer close(r.events)
	defer func() {
		r.cancelMu.Lock()
		if r.cancelFn != nil {
			r.cancelFn()
		}
		r.cancelMu.Unlock()
	}()

	start := time.Now()
	st := r.state
	r.emitState(ctx, &st, "workflow")

	next, _ := r.eng.table.Next(domain.StepWorkflowStarted, domain.DecisionAdvance)

	for {
		if ctx.Err() != nil {
			r.cancelOut(&st, start)
			return
		}
		// Feedback with no checkpoint outstanding is out-of-order and fatal.
		select {
		case <-r.feedback:
			r.failOut(ctx, &st, fmt.Errorf("%w: feedback received while no review is pending", domain.ErrProtocolViolation), start)
			return
		default:
		}
		if next.Terminal() {
			r.finish(ctx, &st, next, start)
			return
		}

		stage, ok := r.eng.registry.Lookup(next)
		if !ok {
			r.failOut(ctx, &st, fmt.Errorf("no stage registered for step %s", next), start)
			return
		}

		st.CurrentStep = next
		if !r.emitState(ctx, &st, stage.Name()) {
			r.cancelOut(&st, start)
			return
		}
		r.hookStageEnter(ctx, stage.Name(), next)

		stageStart := time.Now()
		newSt, dec, err := stage.Execute(ctx, st.Clone())
		r.hookStageLeave(ctx, stage.Name(), next, time.Since(stageStart))

		if ctx.Err() != nil {
			r.cancelOut(&st, start)
			return
		}
		if err != nil {
			// Stage-local errors never escape the stage boundary; they are
			// converted into a retry decision.
			r.logger.Warn("stage error", "stage", stage.Name(), "err", err)
			dec = domain.RetryStage(err.Error())
		} else {
			st = newSt
		}

		completion, _ := next.Completion()

		switch dec.Kind {
		case domain.DecisionAdvance:
			st.CurrentStep = completion
			if !r.emitState(ctx, &st, stage.Name()) {
				r.cancelOut(&st, start)
				return
			}
			if completion.Terminal() {
				r.finish(ctx, &st, completion, start)
				return
			}
			target, ok := r.resolveTarget(completion, domain.DecisionAdvance, dec.Target)
			if !ok {
				r.failOut(ctx, &st, fmt.Errorf("%w: stage %s proposed advance to %s", domain.ErrProtocolViolation, stage.Name(), dec.Target), start)
				return
			}
			next = target

		case domain.DecisionReview:
			st.CurrentStep = completion
			if !r.emitState(ctx, &st, stage.Name()) {
				r.cancelOut(&st, start)
				return
			}
			if _, ok := r.eng.table.Next(completion, domain.DecisionReview); !ok {
				r.failOut(ctx, &st, fmt.Errorf("%w: stage %s may not request review", domain.ErrProtocolViolation, stage.Name()), start)
				return
			}
			resume, _ := r.eng.table.Next(completion, domain.DecisionAdvance)
			target, terminated := r.handleReview(ctx, &st, completion, stage.Name(), dec, resume, start)
			if terminated {
				return
			}
			next = target

		case domain.DecisionRetry:
			if completion == domain.StepQueryValidationCompleted {
				st.CurrentStep = completion
				if !r.emitState(ctx, &st, stage.Name()) {
					r.cancelOut(&st, start)
					return
				}
				target, terminated := r.handleRegeneration(ctx, &st, stage.Name(), dec, start)
				if terminated {
					return
				}
				next = target
				continue
			}
			st.LastError = dec.Reason
			if !r.consumeRunRetry(ctx, &st, stage.Name(), dec.Reason) {
				r.exhaust(ctx, &st, start)
				return
			}
			// next unchanged: re-enter the same stage.

		case domain.DecisionFail:
			st.LastError = dec.Reason
			r.logger.Warn("stage failed", "stage", stage.Name(), "reason", dec.Reason)
			if !r.consumeRunRetry(ctx, &st, stage.Name(), dec.Reason) {
				r.exhaust(ctx, &st, start)
				return
			}

		default:
			r.failOut(ctx, &st, fmt.Errorf("%w: stage %s returned unknown decision kind %q", domain.ErrProtocolViolation, stage.Name(), dec.Kind), start)
			return
		}
	}
}

// resolveTarget applies an optional explicit branch against the table.
func (r *Run) resolveTarget(from domain.Step, kind domain.DecisionKind, explicit domain.Step) (domain.Step, bool) {
	if explicit == "" {
		return r.eng.table.Next(from, kind)
	}
	if !r.eng.table.Allows(from, kind, explicit) {
		return "", false
	}
	return explicit, true
}

// handleReview runs the checkpoint protocol. In normal mode the
// request auto-approves with its original items and no checkpoint is opened.
// The boolean return is true when the run terminated inside the review.
func (r *Run) handleReview(ctx context.Context, st *domain.State, owner domain.Step, stageName string, dec domain.Decision, resume domain.Step, start time.Time) (domain.Step, bool) {
	review := dec.Review
	if review == nil || !review.Type.Valid() {
		r.failOut(ctx, st, fmt.Errorf("%w: stage %s requested review without a valid payload", domain.ErrProtocolViolation, stageName), start)
		return "", true
	}

	if st.Mode == domain.ModeNormal {
		st.SetReviewField(review.Type, review.Items)
		st.HumanApprovals[review.Type] = true
		return resume, false
	}

	cp, err := r.checkpoints.Open(owner, review.Type, review.Items)
	if err != nil {
		r.failOut(ctx, st, err, start)
		return "", true
	}

	st.PendingReview = review
	st.CurrentStep = domain.StepAwaitingReview
	if !r.emitState(ctx, st, stageName) {
		r.cancelOut(st, start)
		return "", true
	}
	if !r.emit(ctx, domain.Event{Type: domain.EventReviewRequested, NodeName: stageName, Checkpoint: cp}) {
		r.cancelOut(st, start)
		return "", true
	}
	r.hookCheckpointOpen(ctx, cp)
	r.logger.Info("run suspended for review", "review_type", cp.Type, "checkpoint_id", cp.ID)

	for {
		select {
		case <-ctx.Done():
			r.cancelOut(st, start)
			return "", true
		case fb := <-r.feedback:
			if _, err := r.checkpoints.Resolve(fb); err != nil {
				r.failOut(ctx, st, err, start)
				return "", true
			}
			st.PendingReview = nil
			if fb.Note != "" {
				st.HumanFeedback = append(st.HumanFeedback, fb.Note)
			}

			switch fb.Action {
			case domain.ReviewReject:
				r.hookCheckpointResolve(ctx, cp, fb.Action)
				st.HumanApprovals[cp.Type] = false
				r.failOut(ctx, st, domain.ErrReviewRejected, start)
				return "", true
			case domain.ReviewModify:
				st.SetReviewField(cp.Type, fb.ApprovedItems)
				for _, s := range fb.SuggestedItems {
					st.HumanFeedback = append(st.HumanFeedback, "suggested: "+s)
				}
			default: // approve
				st.SetReviewField(cp.Type, cp.Items)
			}
			st.HumanApprovals[cp.Type] = true
			r.hookCheckpointResolve(ctx, cp, fb.Action)

			if !r.emit(ctx, domain.Event{Type: domain.EventFeedbackAck, CheckpointID: cp.ID}) {
				r.cancelOut(st, start)
				return "", true
			}
			return resume, false
		}
	}
}

// handleRegeneration routes an invalid query back into the pipeline per the
// regeneration-first tie-break: the local budget pays before the run budget.
func (r *Run) handleRegeneration(ctx context.Context, st *domain.State, stageName string, dec domain.Decision, start time.Time) (domain.Step, bool) {
	from := domain.StepQueryValidationCompleted
	generator, _ := r.eng.table.Next(from, domain.DecisionRetry)

	target, ok := r.resolveTarget(from, domain.DecisionRetry, dec.Target)
	if !ok {
		r.failOut(ctx, st, fmt.Errorf("%w: validator proposed retry at %s", domain.ErrProtocolViolation, dec.Target), start)
		return "", true
	}

	// Local regeneration keeps partial progress, so it only covers the jump
	// back to the generator. Deeper backtracks discard progress and cost a
	// run-level retry.
	if target == generator && r.eng.policy.ConsumeRegeneration(st) {
		r.hookRetry(ctx, stageName, dec.Reason, false, st.RetriesLeft)
		r.logger.Info("regenerating query", "reason", dec.Reason, "regenerations_left", st.RegenerationsLeft)
		return target, false
	}

	if !r.eng.policy.ConsumeRun(st) {
		r.exhaust(ctx, st, start)
		return "", true
	}
	r.eng.policy.ResetRegenerations(st)
	r.hookRetry(ctx, stageName, dec.Reason, true, st.RetriesLeft)
	if dec.Target == "" {
		target = r.backtrackTarget(st, generator)
	}
	r.logger.Info("re-entering pipeline after invalid query", "target", target, "retries_left", st.RetriesLeft)
	return target, false
}

// backtrackTarget picks the re-entry point from the validator's issue code,
// constrained to the declared retry branches.
func (r *Run) backtrackTarget(st *domain.State, fallback domain.Step) domain.Step {
	if st.Validation == nil {
		return fallback
	}
	from := domain.StepQueryValidationCompleted
	var want domain.Step
	switch st.Validation.Code {
	case domain.IssueSchemaMissing:
		want = domain.StepProcessingTableIdentifier
	case domain.IssueInsufficientData, domain.IssueQueryScope:
		want = domain.StepProcessingDatabaseIdentification
	default:
		return fallback
	}
	if r.eng.table.Allows(from, domain.DecisionRetry, want) {
		return want
	}
	return fallback
}

func (r *Run) consumeRunRetry(ctx context.Context, st *domain.State, stageName, reason string) bool {
	if !r.eng.policy.ConsumeRun(st) {
		return false
	}
	r.hookRetry(ctx, stageName, reason, true, st.RetriesLeft)
	r.logger.Info("retrying stage", "stage", stageName, "reason", reason, "retries_left", st.RetriesLeft)
	return true
}

// finish handles successful terminal steps.
func (r *Run) finish(ctx context.Context, st *domain.State, outcome domain.Step, start time.Time) {
	if st.CurrentStep != outcome {
		st.CurrentStep = outcome
		if !r.emitState(ctx, st, "workflow") {
			r.cancelOut(st, start)
			return
		}
	}
	result := domain.BuildResult(*st)
	r.emitTerminal(domain.Event{Type: domain.EventFinalResult, Result: &result, State: snapshot(st)})
	r.setFinal(*st, nil)
	r.hookTerminal(ctx, outcome, time.Since(start))
	r.logger.Info("run completed", "outcome", outcome)
}

// exhaust terminates the run with the best available query attached.
func (r *Run) exhaust(ctx context.Context, st *domain.State, start time.Time) {
	st.CurrentStep = domain.StepMaxRetriesExhausted
	if st.GeneratedQuery != nil {
		st.UserMessage = "Query generated with validation issues after maximum retries. Review the query and validation feedback carefully."
		if st.Validation != nil && st.Validation.Details != "" {
			st.UserMessage += " Remaining issues: " + st.Validation.Details
		}
	}
	if !r.emitState(ctx, st, "workflow") {
		r.cancelOut(st, start)
		return
	}
	result := domain.BuildResult(*st)
	r.emitTerminal(domain.Event{Type: domain.EventFinalResult, Result: &result, State: snapshot(st)})
	r.setFinal(*st, domain.ErrBudgetExhausted)
	r.hookTerminal(ctx, domain.StepMaxRetriesExhausted, time.Since(start))
	r.logger.Warn("retry budget exhausted")
}

// failOut terminates the run fatally with an error event.
func (r *Run) failOut(ctx context.Context, st *domain.State, cause error, start time.Time) {
	st.CurrentStep = domain.StepWorkflowFailed
	st.LastError = cause.Error()
	st.PendingReview = nil
	r.checkpoints.Discard()
	r.emitState(ctx, st, "workflow")
	r.emitTerminal(domain.Event{Type: domain.EventError, Message: cause.Error(), State: snapshot(st)})
	r.setFinal(*st, cause)
	r.hookTerminal(ctx, domain.StepWorkflowFailed, time.Since(start))
	r.logger.Error("run failed", "err", cause)
}

// cancelOut terminates the run after cancellation, discarding any pending
// checkpoint.
func (r *Run) cancelOut(st *domain.State, start time.Time) {
	st.CurrentStep = domain.StepCancelled
	st.PendingReview = nil
	r.checkpoints.Discard()
	r.emitTerminal(domain.Event{Type: domain.EventCancelled, Message: "workflow cancelled", State: snapshot(st)})
	r.setFinal(*st, domain.ErrRunCancelled)
	r.hookTerminal(context.Background(), domain.StepCancelled, time.Since(start))
	r.logger.Info("run cancelled")
}

func (r *Run) setFinal(st domain.State, err error) {
	r.finalMu.Lock()
	r.final = st
	r.err = err
	r.finalMu.Unlock()
}

// emitState pushes a state_update with a snapshot of st. Returns false when
// the run context was cancelled before the event could be queued.
func (r *Run) emitState(ctx context.Context, st *domain.State, nodeName string) bool {
	return r.emit(ctx, domain.Event{Type: domain.EventStateUpdate, NodeName: nodeName, State: snapshot(st)})
}

func (r *Run) emit(ctx context.Context, ev domain.Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// terminalSendGrace bounds the terminal send when the consumer has stopped
// draining the queue.
const terminalSendGrace = 5 * time.Second

// emitTerminal queues the run's terminal event. Cancellation cannot pre-empt
// it: the queue is buffered and every run emits exactly one terminal event
// before the queue closes, so the fast path wins whenever the consumer keeps
// up. A consumer that stopped reading forfeits the event after the grace
// period instead of wedging the run goroutine.
func (r *Run) emitTerminal(ev domain.Event) {
	select {
	case r.events <- ev:
		return
	default:
	}
	t := time.NewTimer(terminalSendGrace)
	defer t.Stop()
	select {
	case r.events <- ev:
	case <-t.C:
		r.logger.Warn("terminal event dropped, consumer stopped reading", "type", ev.Type)
	}
}

func snapshot(st *domain.State) *domain.State {
	s := st.Clone()
	return &s
}

func (r *Run) hookStageEnter(ctx context.Context, stage string, step domain.Step) {
	if r.eng.hooks.OnStageEnter != nil {
		r.eng.hooks.OnStageEnter(ctx, &domain.StageEvent{Timestamp: time.Now(), RunID: r.id, Stage: stage, Step: step})
	}
}

func (r *Run) hookStageLeave(ctx context.Context, stage string, step domain.Step, d time.Duration) {
	if r.eng.hooks.OnStageLeave != nil {
		r.eng.hooks.OnStageLeave(ctx, &domain.StageEvent{Timestamp: time.Now(), RunID: r.id, Stage: stage, Step: step, Duration: d})
	}
}

func (r *Run) hookRetry(ctx context.Context, stage, reason string, runLevel bool, left int) {
	if r.eng.hooks.OnRetry != nil {
		r.eng.hooks.OnRetry(ctx, &domain.RetryEvent{Timestamp: time.Now(), RunID: r.id, Stage: stage, Reason: reason, RunLevel: runLevel, RetriesLeft: left})
	}
}

func (r *Run) hookCheckpointOpen(ctx context.Context, cp *domain.Checkpoint) {
	if r.eng.hooks.OnCheckpointOpen != nil {
		r.eng.hooks.OnCheckpointOpen(ctx, &domain.CheckpointEvent{Timestamp: time.Now(), RunID: r.id, CheckpointID: cp.ID, Type: cp.Type})
	}
}

func (r *Run) hookCheckpointResolve(ctx context.Context, cp *domain.Checkpoint, action domain.ReviewAction) {
	if r.eng.hooks.OnCheckpointResolve != nil {
		r.eng.hooks.OnCheckpointResolve(ctx, &domain.CheckpointEvent{Timestamp: time.Now(), RunID: r.id, CheckpointID: cp.ID, Type: cp.Type, Action: action})
	}
}

func (r *Run) hookTerminal(ctx context.Context, outcome domain.Step, d time.Duration) {
	if r.eng.hooks.OnTerminal != nil {
		r.eng.hooks.OnTerminal(ctx, &domain.TerminalEvent{Timestamp: time.Now(), RunID: r.id, Outcome: outcome, Duration: d})
	}
}
