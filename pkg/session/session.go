package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nithiin7/lang2query/internal/logging"
	"github.com/nithiin7/lang2query/internal/runtime"
	"github.com/nithiin7/lang2query/pkg/domain"
)

// Session is the server-side end of one client connection. It admits at most
// one active run at a time and forwards that run's events, in order, onto a
// single outbound queue. State updates are snapshotted to the manager's store
// while the run is in flight and removed on termination.
type Session struct {
	id     string
	eng    *runtime.Engine
	mgr    *Manager
	logger *slog.Logger

	outbound chan domain.Event

	mu     sync.Mutex
	run    *runtime.Run
	closed bool

	wg sync.WaitGroup
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOutboundSize sets the outbound queue buffer.
func WithOutboundSize(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.outbound = make(chan domain.Event, n)
		}
	}
}

// New creates a session bound to an engine and a snapshot manager.
func New(eng *runtime.Engine, mgr *Manager, opts ...SessionOption) *Session {
	s := &Session{
		id:       uuid.NewString(),
		eng:      eng,
		mgr:      mgr,
		outbound: make(chan domain.Event, 64),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Events returns the session's outbound queue. It carries every event of
// every run the session starts, in per-run order, and closes when the
// session closes.
func (s *Session) Events() <-chan domain.Event { return s.outbound }

// Start launches a run for the query. It fails with ErrRunActive while a
// previous run has not terminated.
func (s *Session) Start(ctx context.Context, query string, mode domain.Mode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("session %s is closed", s.id)
	}
	if s.run != nil {
		select {
		case <-s.run.Done():
			// Previous run finished; slot is free.
		default:
			return "", domain.ErrRunActive
		}
	}

	run, err := s.eng.NewRun(query, mode)
	if err != nil {
		return "", err
	}
	s.run = run

	s.wg.Add(1)
	go s.pipe(run)
	run.Start(ctx)
	s.logger.Info("run started", "run_id", run.ID(), "mode", mode)
	return run.ID(), nil
}

// Feedback forwards review feedback to the active run.
func (s *Session) Feedback(fb domain.ReviewFeedback) error {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		return fmt.Errorf("%w: feedback with no active run", domain.ErrProtocolViolation)
	}
	return run.Feedback(fb)
}

// Cancel cancels the active run, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run != nil {
		run.Cancel()
	}
}

// Active reports whether a run is currently in flight.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return false
	}
	select {
	case <-s.run.Done():
		return false
	default:
		return true
	}
}

// Close cancels any active run, waits for its events to drain, and closes
// the outbound queue.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	run := s.run
	s.mu.Unlock()

	if run != nil {
		run.Cancel()
	}
	s.wg.Wait()
	close(s.outbound)
}

// pipe forwards one run's events onto the outbound queue, snapshotting state
// updates along the way. Snapshot errors are logged, never fatal: the run's
// own state remains authoritative.
func (s *Session) pipe(run *runtime.Run) {
	defer s.wg.Done()
	ctx := context.Background()
	for ev := range run.Events() {
		if ev.Type == domain.EventStateUpdate && ev.State != nil {
			if err := s.mgr.Save(ctx, s.id, ev.State); err != nil {
				s.logger.Warn("state snapshot failed", "run_id", run.ID(), "err", err)
			}
		}
		s.outbound <- ev
	}
	if err := s.mgr.Delete(ctx, s.id); err != nil {
		s.logger.Warn("snapshot cleanup failed", "run_id", run.ID(), "err", err)
	}
}
