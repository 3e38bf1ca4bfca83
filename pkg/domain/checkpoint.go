package domain

// ReviewType identifies which selection a checkpoint asks a human to confirm.
type ReviewType string

const (
	ReviewDatabases ReviewType = "databases"
	ReviewTables    ReviewType = "tables"
)

// Valid reports whether rt is a known review type.
func (rt ReviewType) Valid() bool {
	return rt == ReviewDatabases || rt == ReviewTables
}

// PendingReview is the State-visible marker of a suspended run. It is non-nil
// only while the run awaits feedback; at most one exists per run.
type PendingReview struct {
	Type  ReviewType `json:"review_type"`
	Items []string   `json:"items"`
}

// Checkpoint is the checkpoint manager's record of a suspension. The ID is an
// opaque token unique per run; feedback must echo it back.
type Checkpoint struct {
	ID    string     `json:"id"`
	Type  ReviewType `json:"review_type"`
	Items []string   `json:"items"`
}

// ReviewAction is the verdict a human returns for a checkpoint.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewModify  ReviewAction = "modify"
	ReviewReject  ReviewAction = "reject"
)

// Valid reports whether a is a known review action.
func (a ReviewAction) Valid() bool {
	return a == ReviewApprove || a == ReviewModify || a == ReviewReject
}

// ReviewFeedback is the human response that resolves a checkpoint.
//
// ApprovedItems replace the owning State field on a modify action;
// SuggestedItems are recorded in the feedback log but never auto-applied.
type ReviewFeedback struct {
	CheckpointID   string       `json:"checkpointId"`
	Type           ReviewType   `json:"review_type"`
	Action         ReviewAction `json:"action"`
	ApprovedItems  []string     `json:"approved_items,omitempty"`
	SuggestedItems []string     `json:"suggested_items,omitempty"`
	Note           string       `json:"feedback_text,omitempty"`
}
