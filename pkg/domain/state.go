package domain

// Mode selects how a run treats review requests.
type Mode string

const (
	// ModeNormal auto-approves every review request with its original items.
	ModeNormal Mode = "normal"
	// ModeInteractive suspends the run and waits for human feedback.
	ModeInteractive Mode = "interactive"
)

// Valid reports whether m is a known interaction mode.
func (m Mode) Valid() bool {
	return m == ModeNormal || m == ModeInteractive
}

// State is the single record threaded through a run. Stages receive it by
// value and return a replacement; the orchestrator never shares one instance
// across runs. Field ownership: each field is written by exactly one stage
// (or by a review merge) and is read-only everywhere else.
type State struct {
	RunID string `json:"run_id"`
	Query string `json:"natural_language_query"`
	Mode  Mode   `json:"interaction_mode"`

	CurrentStep Step `json:"current_step"`

	// RetriesLeft is the run-level budget, non-negative, decremented on stage
	// failure. RegenerationsLeft is the validator/generator local budget.
	RetriesLeft       int `json:"retries_left"`
	RegenerationsLeft int `json:"regenerations_left"`

	// IsMetadataQuery is nil until the router classifies the request and is
	// immutable once set.
	IsMetadataQuery *bool  `json:"is_metadata_query,omitempty"`
	Dialect         string `json:"dialect,omitempty"`

	RelevantDatabases []string `json:"relevant_databases,omitempty"`
	RelevantTables    []string `json:"relevant_tables,omitempty"`
	RelevantColumns   []string `json:"relevant_columns,omitempty"`

	SchemaContext string `json:"schema_context,omitempty"`
	QueryPlan     string `json:"query_plan,omitempty"`

	GeneratedQuery *GeneratedQuery     `json:"generated_query,omitempty"`
	IsQueryValid   bool                `json:"is_query_valid"`
	Validation     *ValidationFeedback `json:"query_validation_feedback,omitempty"`

	MetadataResponse string `json:"metadata_response,omitempty"`

	// PendingReview is non-nil only while the run is suspended.
	PendingReview *PendingReview `json:"pending_review,omitempty"`

	// HumanApprovals and HumanFeedback accumulate review outcomes for the
	// life of the run; both are append-only.
	HumanApprovals map[ReviewType]bool `json:"human_approvals,omitempty"`
	HumanFeedback  []string            `json:"human_feedback,omitempty"`

	// UserMessage is surfaced to the client on early exit.
	UserMessage string `json:"user_message,omitempty"`
	LastError   string `json:"last_error,omitempty"`

	// EncryptedPayload is set only on at-rest envelopes written by the
	// storage encryption middleware; live states never carry it.
	EncryptedPayload string `json:"encrypted_payload,omitempty"`
}

// NewState creates the initial state for a run.
func NewState(runID, query string, mode Mode, retries, regenerations int) State {
	return State{
		RunID:             runID,
		Query:             query,
		Mode:              mode,
		CurrentStep:       StepWorkflowStarted,
		RetriesLeft:       retries,
		RegenerationsLeft: regenerations,
		HumanApprovals:    make(map[ReviewType]bool),
	}
}

// Clone returns a deep copy so snapshots and stage inputs cannot alias the
// orchestrator's working state.
func (s State) Clone() State {
	next := s
	next.RelevantDatabases = cloneStrings(s.RelevantDatabases)
	next.RelevantTables = cloneStrings(s.RelevantTables)
	next.RelevantColumns = cloneStrings(s.RelevantColumns)
	next.HumanFeedback = cloneStrings(s.HumanFeedback)
	if s.IsMetadataQuery != nil {
		v := *s.IsMetadataQuery
		next.IsMetadataQuery = &v
	}
	if s.GeneratedQuery != nil {
		q := *s.GeneratedQuery
		next.GeneratedQuery = &q
	}
	if s.Validation != nil {
		v := *s.Validation
		v.Suggestions = cloneStrings(s.Validation.Suggestions)
		next.Validation = &v
	}
	if s.PendingReview != nil {
		p := *s.PendingReview
		p.Items = cloneStrings(s.PendingReview.Items)
		next.PendingReview = &p
	}
	next.HumanApprovals = make(map[ReviewType]bool, len(s.HumanApprovals))
	for k, v := range s.HumanApprovals {
		next.HumanApprovals[k] = v
	}
	return next
}

// ReviewField returns the identifier slice a review type owns.
func (s State) ReviewField(rt ReviewType) []string {
	switch rt {
	case ReviewDatabases:
		return s.RelevantDatabases
	case ReviewTables:
		return s.RelevantTables
	}
	return nil
}

// SetReviewField overwrites the identifier slice a review type owns.
func (s *State) SetReviewField(rt ReviewType, items []string) {
	switch rt {
	case ReviewDatabases:
		s.RelevantDatabases = items
	case ReviewTables:
		s.RelevantTables = items
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
