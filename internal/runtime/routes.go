package runtime

import (
	"github.com/nithiin7/lang2query/pkg/domain"
)

// routeKey addresses one row of the transition table.
type routeKey struct {
	From domain.Step
	Kind domain.DecisionKind
}

// Edge is one statically declared transition, exposed for inspection.
type Edge struct {
	From domain.Step
	Kind domain.DecisionKind
	To   domain.Step
}

// Table is the finite transition map of the workflow graph. Advance and
// review edges are keyed on completion steps; the single retry edge encodes
// the validator's jump back into the pipeline. The first target of an entry
// is the default; the rest are the branches a stage may select explicitly.
type Table struct {
	edges map[routeKey][]domain.Step
}

// DefaultTable builds the workflow graph: a router branch into
// either the metadata short circuit or the linear identification pipeline,
// with review suspensions after database and table identification.
func DefaultTable() *Table {
	t := &Table{edges: make(map[routeKey][]domain.Step)}

	advance := func(from domain.Step, to ...domain.Step) {
		t.edges[routeKey{from, domain.DecisionAdvance}] = to
	}
	review := func(from domain.Step) {
		t.edges[routeKey{from, domain.DecisionReview}] = []domain.Step{domain.StepAwaitingReview}
	}

	advance(domain.StepWorkflowStarted, domain.StepProcessingRouting)

	// The one true branch point. The metadata path short-circuits directly
	// to terminal success.
	advance(domain.StepRoutingCompleted,
		domain.StepProcessingDatabaseIdentification,
		domain.StepProcessingMetadataAgent,
	)

	advance(domain.StepDatabaseIdentificationCompleted, domain.StepProcessingTableIdentifier)
	review(domain.StepDatabaseIdentificationCompleted)

	advance(domain.StepTableIdentificationCompleted, domain.StepProcessingColumnIdentifier)
	review(domain.StepTableIdentificationCompleted)

	advance(domain.StepColumnIdentificationCompleted, domain.StepProcessingSchemaBuilder)
	advance(domain.StepSchemaBuildingCompleted, domain.StepProcessingQueryPlanning)
	advance(domain.StepQueryPlanningCompleted, domain.StepProcessingQueryGeneration)
	advance(domain.StepQueryGenerationCompleted, domain.StepProcessingQueryValidation)
	advance(domain.StepQueryValidationCompleted, domain.StepWorkflowCompleted)

	// An invalid query re-enters the pipeline. The generator is the default;
	// the validator may backtrack further based on the issue code.
	t.edges[routeKey{domain.StepQueryValidationCompleted, domain.DecisionRetry}] = []domain.Step{
		domain.StepProcessingQueryGeneration,
		domain.StepProcessingQueryPlanning,
		domain.StepProcessingTableIdentifier,
		domain.StepProcessingDatabaseIdentification,
	}

	return t
}

// Next returns the default target for (from, kind).
func (t *Table) Next(from domain.Step, kind domain.DecisionKind) (domain.Step, bool) {
	targets, ok := t.edges[routeKey{from, kind}]
	if !ok || len(targets) == 0 {
		return "", false
	}
	return targets[0], true
}

// Allows reports whether target is a declared branch for (from, kind).
func (t *Table) Allows(from domain.Step, kind domain.DecisionKind, target domain.Step) bool {
	for _, to := range t.edges[routeKey{from, kind}] {
		if to == target {
			return true
		}
	}
	return false
}

// Edges enumerates every declared transition, for visualization and tests.
func (t *Table) Edges() []Edge {
	var out []Edge
	for key, targets := range t.edges {
		for _, to := range targets {
			out = append(out, Edge{From: key.From, Kind: key.Kind, To: to})
		}
	}
	return out
}
