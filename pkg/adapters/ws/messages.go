package ws

import (
	"fmt"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// Inbound message types.
const (
	msgStart    = "start"
	msgFeedback = "hitl_feedback"
	msgCancel   = "cancel"
)

// msgConnected is sent once per connection, before any run event.
const msgConnected = "connected"

// inboundMessage is the union of everything a client may send.
type inboundMessage struct {
	Type string `json:"type"`

	// start
	Query string `json:"query,omitempty"`
	Mode  string `json:"mode,omitempty"`

	// hitl_feedback
	CheckpointID   string   `json:"checkpointId,omitempty"`
	ReviewType     string   `json:"review_type,omitempty"`
	Action         string   `json:"action,omitempty"`
	ApprovedItems  []string `json:"approved_items,omitempty"`
	SuggestedItems []string `json:"suggested_items,omitempty"`
	FeedbackText   string   `json:"feedback_text,omitempty"`
}

// feedback converts the message into the domain form.
func (m *inboundMessage) feedback() (domain.ReviewFeedback, error) {
	action := domain.ReviewAction(m.Action)
	if !action.Valid() {
		return domain.ReviewFeedback{}, fmt.Errorf("unknown feedback action %q", m.Action)
	}
	rt := domain.ReviewType(m.ReviewType)
	if !rt.Valid() {
		return domain.ReviewFeedback{}, fmt.Errorf("unknown review type %q", m.ReviewType)
	}
	return domain.ReviewFeedback{
		CheckpointID:   m.CheckpointID,
		Type:           rt,
		Action:         action,
		ApprovedItems:  m.ApprovedItems,
		SuggestedItems: m.SuggestedItems,
		Note:           m.FeedbackText,
	}, nil
}

// outboundMessage is the wire envelope for everything the server sends.
type outboundMessage struct {
	Type         string             `json:"type"`
	SessionID    string             `json:"session_id,omitempty"`
	RunID        string             `json:"run_id,omitempty"`
	NodeName     string             `json:"node_name,omitempty"`
	State        *domain.State      `json:"state,omitempty"`
	Checkpoint   *domain.Checkpoint `json:"checkpoint,omitempty"`
	CheckpointID string             `json:"checkpointId,omitempty"`
	Result       *domain.Result     `json:"result,omitempty"`
	Message      string             `json:"message,omitempty"`
}

// outbound wraps a run event for the wire.
func outbound(ev domain.Event) outboundMessage {
	m := outboundMessage{
		Type:         string(ev.Type),
		NodeName:     ev.NodeName,
		State:        ev.State,
		Checkpoint:   ev.Checkpoint,
		CheckpointID: ev.CheckpointID,
		Result:       ev.Result,
		Message:      ev.Message,
	}
	if ev.State != nil {
		m.RunID = ev.State.RunID
	}
	return m
}
