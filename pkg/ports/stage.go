package ports

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// Stage is one unit of the pipeline. Execute consumes the current state and
// returns the replacement state plus a routing Decision.
//
// A stage may read any field but must only write fields it owns. Side effects
// are confined to the returned state and decision; a stage never talks to the
// transport. A returned error is treated by the orchestrator as a recoverable
// failure and converted into a retry decision; it never escapes the stage
// boundary.
type Stage interface {
	// Step returns the processing step this stage executes under.
	Step() domain.Step

	// Name returns the node name used in state_update events and logs.
	Name() string

	Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error)
}
