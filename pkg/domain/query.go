package domain

// RoutingInfo is the router's classification of the incoming request.
type RoutingInfo struct {
	IsMetadataQuery bool   `json:"is_metadata_query"`
	Dialect         string `json:"dialect"`
}

// GeneratedQuery is the generator's output: the structured query text plus a
// human-readable explanation. The validator may cause it to be overwritten by
// a bounded regeneration loop.
type GeneratedQuery struct {
	Query       string `json:"query"`
	Explanation string `json:"explanation,omitempty"`
}

// IssueCode classifies why a generated query failed validation. It steers
// where a retry re-enters the pipeline.
type IssueCode string

const (
	IssueAccepted         IssueCode = "accepted"
	IssueSchemaMissing    IssueCode = "schema_missing"
	IssueGeneration       IssueCode = "sql_generation_issue"
	IssueInsufficientData IssueCode = "insufficient_data"
	IssueQueryScope       IssueCode = "query_scope_issue"
	IssueDataTypeMismatch IssueCode = "data_type_mismatch"
	IssueJoinRelationship IssueCode = "join_relationship_error"
	IssueUnknown          IssueCode = "unknown"
)

// ValidationFeedback is the validator's structured verdict.
type ValidationFeedback struct {
	Valid       bool      `json:"valid"`
	Code        IssueCode `json:"issue_type,omitempty"`
	Details     string    `json:"details,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// Result is the terminal payload of a run, sent once as final_result.
type Result struct {
	Status           Step                `json:"status"`
	StatusDisplay    string              `json:"status_display"`
	Query            *GeneratedQuery     `json:"query,omitempty"`
	QueryPlan        string              `json:"query_plan,omitempty"`
	Databases        []string            `json:"databases,omitempty"`
	Tables           []string            `json:"tables,omitempty"`
	Columns          []string            `json:"columns,omitempty"`
	MetadataResponse string              `json:"metadata_response,omitempty"`
	IsQueryValid     bool                `json:"is_query_valid"`
	Validation       *ValidationFeedback `json:"validation,omitempty"`
	Message          string              `json:"message,omitempty"`
}

// BuildResult summarizes a terminal state into the final_result payload.
func BuildResult(st State) Result {
	r := Result{
		Status:           st.CurrentStep,
		StatusDisplay:    st.CurrentStep.Display(),
		Query:            st.GeneratedQuery,
		QueryPlan:        st.QueryPlan,
		Databases:        st.RelevantDatabases,
		Tables:           st.RelevantTables,
		Columns:          st.RelevantColumns,
		MetadataResponse: st.MetadataResponse,
		IsQueryValid:     st.IsQueryValid,
		Validation:       st.Validation,
		Message:          st.UserMessage,
	}
	return r
}
