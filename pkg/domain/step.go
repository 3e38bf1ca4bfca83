package domain

// Step identifies a phase of the workflow state machine.
//
// Processing steps bracket exactly one stage execution; each has a matching
// completion step. The remaining values are either the entry step, the review
// suspension step, or terminal outcomes.
type Step string

const (
	StepWorkflowStarted Step = "workflow_started"

	StepProcessingRouting Step = "processing_routing"
	StepRoutingCompleted  Step = "routing_completed"

	StepProcessingMetadataAgent Step = "processing_metadata_agent"
	StepMetadataCompleted       Step = "metadata_completed"

	StepProcessingDatabaseIdentification Step = "processing_database_identification"
	StepDatabaseIdentificationCompleted  Step = "database_identification_completed"

	StepProcessingTableIdentifier   Step = "processing_table_identifier"
	StepTableIdentificationCompleted Step = "table_identification_completed"

	StepProcessingColumnIdentifier    Step = "processing_column_identifier"
	StepColumnIdentificationCompleted Step = "column_identification_completed"

	StepProcessingSchemaBuilder  Step = "processing_schema_builder"
	StepSchemaBuildingCompleted  Step = "schema_building_completed"

	StepProcessingQueryPlanning Step = "processing_query_planning"
	StepQueryPlanningCompleted  Step = "query_planning_completed"

	StepProcessingQueryGeneration Step = "processing_query_generation"
	StepQueryGenerationCompleted  Step = "query_generation_completed"

	StepProcessingQueryValidation Step = "processing_query_validation"
	StepQueryValidationCompleted  Step = "query_validation_completed"

	StepAwaitingReview Step = "awaiting_review"

	StepWorkflowCompleted   Step = "workflow_completed"
	StepMaxRetriesExhausted Step = "max_retries_exhausted"
	StepWorkflowFailed      Step = "workflow_failed"
	StepCancelled           Step = "cancelled"
)

// completions maps each processing step to its completion step.
var completions = map[Step]Step{
	StepProcessingRouting:                StepRoutingCompleted,
	StepProcessingMetadataAgent:          StepMetadataCompleted,
	StepProcessingDatabaseIdentification: StepDatabaseIdentificationCompleted,
	StepProcessingTableIdentifier:        StepTableIdentificationCompleted,
	StepProcessingColumnIdentifier:       StepColumnIdentificationCompleted,
	StepProcessingSchemaBuilder:          StepSchemaBuildingCompleted,
	StepProcessingQueryPlanning:          StepQueryPlanningCompleted,
	StepProcessingQueryGeneration:        StepQueryGenerationCompleted,
	StepProcessingQueryValidation:        StepQueryValidationCompleted,
}

// Completion returns the completion step matching a processing step.
// The second return is false if s is not a processing step.
func (s Step) Completion() (Step, bool) {
	c, ok := completions[s]
	return c, ok
}

// Processing reports whether s brackets a stage execution.
func (s Step) Processing() bool {
	_, ok := completions[s]
	return ok
}

// Terminal reports whether no further stage execution occurs after s.
func (s Step) Terminal() bool {
	switch s {
	case StepMetadataCompleted, StepWorkflowCompleted, StepMaxRetriesExhausted,
		StepWorkflowFailed, StepCancelled:
		return true
	}
	return false
}

// Success reports whether s is a successful terminal outcome.
func (s Step) Success() bool {
	return s == StepWorkflowCompleted || s == StepMetadataCompleted
}

var stepDisplay = map[Step]string{
	StepWorkflowStarted:                  "Starting workflow",
	StepProcessingRouting:                "Analyzing query type",
	StepRoutingCompleted:                 "Query type identified",
	StepProcessingMetadataAgent:          "Answering metadata question",
	StepMetadataCompleted:                "Metadata query completed",
	StepProcessingDatabaseIdentification: "Identifying relevant databases",
	StepDatabaseIdentificationCompleted:  "Databases identified",
	StepProcessingTableIdentifier:        "Finding relevant tables",
	StepTableIdentificationCompleted:     "Tables identified",
	StepProcessingColumnIdentifier:       "Discovering relevant columns",
	StepColumnIdentificationCompleted:    "Columns identified",
	StepProcessingSchemaBuilder:          "Building schema context",
	StepSchemaBuildingCompleted:          "Schema context ready",
	StepProcessingQueryPlanning:          "Creating query plan",
	StepQueryPlanningCompleted:           "Query plan ready",
	StepProcessingQueryGeneration:        "Generating query",
	StepQueryGenerationCompleted:         "Query generated",
	StepProcessingQueryValidation:        "Validating generated query",
	StepQueryValidationCompleted:         "Validation finished",
	StepAwaitingReview:                   "Waiting for human review",
	StepWorkflowCompleted:                "Workflow completed successfully",
	StepMaxRetriesExhausted:              "Maximum retries reached",
	StepWorkflowFailed:                   "Workflow failed",
	StepCancelled:                        "Workflow cancelled",
}

// Display returns a human-friendly description of the step for logs and CLIs.
func (s Step) Display() string {
	if d, ok := stepDisplay[s]; ok {
		return d
	}
	return string(s)
}
