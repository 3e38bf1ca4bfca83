package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithiin7/lang2query/pkg/domain"
)

func TestDefaultTable_AdvanceChain(t *testing.T) {
	table := DefaultTable()

	chain := []struct {
		from domain.Step
		to   domain.Step
	}{
		{domain.StepWorkflowStarted, domain.StepProcessingRouting},
		{domain.StepRoutingCompleted, domain.StepProcessingDatabaseIdentification},
		{domain.StepDatabaseIdentificationCompleted, domain.StepProcessingTableIdentifier},
		{domain.StepTableIdentificationCompleted, domain.StepProcessingColumnIdentifier},
		{domain.StepColumnIdentificationCompleted, domain.StepProcessingSchemaBuilder},
		{domain.StepSchemaBuildingCompleted, domain.StepProcessingQueryPlanning},
		{domain.StepQueryPlanningCompleted, domain.StepProcessingQueryGeneration},
		{domain.StepQueryGenerationCompleted, domain.StepProcessingQueryValidation},
		{domain.StepQueryValidationCompleted, domain.StepWorkflowCompleted},
	}
	for _, tc := range chain {
		next, ok := table.Next(tc.from, domain.DecisionAdvance)
		require.True(t, ok, "missing advance edge from %s", tc.from)
		assert.Equal(t, tc.to, next)
	}
}

func TestDefaultTable_RouterBranch(t *testing.T) {
	table := DefaultTable()

	assert.True(t, table.Allows(domain.StepRoutingCompleted, domain.DecisionAdvance, domain.StepProcessingMetadataAgent))
	assert.True(t, table.Allows(domain.StepRoutingCompleted, domain.DecisionAdvance, domain.StepProcessingDatabaseIdentification))
	assert.False(t, table.Allows(domain.StepRoutingCompleted, domain.DecisionAdvance, domain.StepProcessingQueryGeneration))
}

func TestDefaultTable_ReviewEdges(t *testing.T) {
	table := DefaultTable()

	for _, from := range []domain.Step{
		domain.StepDatabaseIdentificationCompleted,
		domain.StepTableIdentificationCompleted,
	} {
		next, ok := table.Next(from, domain.DecisionReview)
		require.True(t, ok, "missing review edge from %s", from)
		assert.Equal(t, domain.StepAwaitingReview, next)
	}

	// Columns are never reviewed.
	_, ok := table.Next(domain.StepColumnIdentificationCompleted, domain.DecisionReview)
	assert.False(t, ok)
}

func TestDefaultTable_RetryBranches(t *testing.T) {
	table := DefaultTable()

	next, ok := table.Next(domain.StepQueryValidationCompleted, domain.DecisionRetry)
	require.True(t, ok)
	assert.Equal(t, domain.StepProcessingQueryGeneration, next, "generator must be the default retry target")

	for _, target := range []domain.Step{
		domain.StepProcessingQueryPlanning,
		domain.StepProcessingTableIdentifier,
		domain.StepProcessingDatabaseIdentification,
	} {
		assert.True(t, table.Allows(domain.StepQueryValidationCompleted, domain.DecisionRetry, target))
	}
	assert.False(t, table.Allows(domain.StepQueryValidationCompleted, domain.DecisionRetry, domain.StepProcessingRouting))
}

func TestDefaultTable_EveryEdgeTargetsKnownStep(t *testing.T) {
	table := DefaultTable()

	for _, edge := range table.Edges() {
		valid := edge.To.Processing() || edge.To.Terminal() || edge.To == domain.StepAwaitingReview
		assert.True(t, valid, "edge %s -[%s]-> %s targets a non-executable step", edge.From, edge.Kind, edge.To)
	}
}
