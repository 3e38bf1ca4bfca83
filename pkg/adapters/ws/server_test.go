package ws

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithiin7/lang2query/internal/runtime"
	"github.com/nithiin7/lang2query/pkg/adapters/catalog"
	"github.com/nithiin7/lang2query/pkg/adapters/memory"
	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/session"
	"github.com/nithiin7/lang2query/pkg/stages"
)

const testCatalogYAML = `
dialect: sql
databases:
  - name: sales
    description: Revenue and order tracking
    keywords: [revenue, orders]
    tables:
      - name: orders
        description: One row per customer order
        keywords: [order, purchase]
        columns:
          - name: id
            type: bigint
            description: Order identifier
          - name: amount
            type: numeric
            description: Order total
            keywords: [revenue, total]
          - name: region
            type: text
            description: Sales region
            keywords: [region]
`

func newTestServer(t *testing.T) (*httptest.Server, *websocket.Conn) {
	t.Helper()

	cat, err := catalog.Parse([]byte(testCatalogYAML))
	require.NoError(t, err)
	reg, err := runtime.NewRegistry(stages.All(stages.Dependencies{
		Classifier: cat,
		Responder:  cat,
		Catalog:    cat,
		Planner:    cat,
		Generator:  cat,
		Validator:  cat,
	})...)
	require.NoError(t, err)

	eng := runtime.NewEngine(reg)
	mgr := session.NewManager(memory.NewStore())
	srv := httptest.NewServer(NewServer(eng, mgr).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return srv, ws
}

func readMessage(t *testing.T, ws *websocket.Conn) outboundMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg outboundMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

// readUntil returns the first message of the wanted type, failing on any
// terminal message of a different type.
func readUntil(t *testing.T, ws *websocket.Conn, want string) outboundMessage {
	t.Helper()
	for {
		msg := readMessage(t, ws)
		if msg.Type == want {
			return msg
		}
		switch msg.Type {
		case string(domain.EventFinalResult), string(domain.EventCancelled), string(domain.EventError):
			t.Fatalf("terminal %q while waiting for %q: %s", msg.Type, want, msg.Message)
		}
	}
}

func TestServer_ConnectedHandshake(t *testing.T) {
	_, ws := newTestServer(t)

	msg := readMessage(t, ws)
	assert.Equal(t, msgConnected, msg.Type)
	assert.NotEmpty(t, msg.SessionID)
}

func TestServer_NormalModeRun(t *testing.T) {
	_, ws := newTestServer(t)
	readMessage(t, ws) // connected

	require.NoError(t, ws.WriteJSON(map[string]string{
		"type":  "start",
		"query": "total revenue by region",
		"mode":  "normal",
	}))

	sawStateUpdate := false
	for {
		msg := readMessage(t, ws)
		switch msg.Type {
		case string(domain.EventStateUpdate):
			sawStateUpdate = true
			assert.NotNil(t, msg.State)
			assert.NotEmpty(t, msg.RunID)
		case string(domain.EventFinalResult):
			require.NotNil(t, msg.Result)
			assert.Equal(t, domain.StepWorkflowCompleted, msg.Result.Status)
			require.NotNil(t, msg.Result.Query)
			assert.Contains(t, msg.Result.Query.Query, "FROM sales.orders")
			assert.True(t, sawStateUpdate)
			return
		case string(domain.EventError):
			t.Fatalf("run failed: %s", msg.Message)
		}
	}
}

func TestServer_InteractiveReviewFlow(t *testing.T) {
	_, ws := newTestServer(t)
	readMessage(t, ws) // connected

	require.NoError(t, ws.WriteJSON(map[string]string{
		"type":  "start",
		"query": "total revenue by region",
		"mode":  "interactive",
	}))

	// Database review.
	req := readUntil(t, ws, string(domain.EventReviewRequested))
	require.NotNil(t, req.Checkpoint)
	assert.Equal(t, domain.ReviewDatabases, req.Checkpoint.Type)
	assert.Contains(t, req.Checkpoint.Items, "sales")

	require.NoError(t, ws.WriteJSON(map[string]any{
		"type":         "hitl_feedback",
		"checkpointId": req.Checkpoint.ID,
		"review_type":  "databases",
		"action":       "approve",
	}))
	readUntil(t, ws, string(domain.EventFeedbackAck))

	// Table review.
	req = readUntil(t, ws, string(domain.EventReviewRequested))
	require.NotNil(t, req.Checkpoint)
	assert.Equal(t, domain.ReviewTables, req.Checkpoint.Type)

	require.NoError(t, ws.WriteJSON(map[string]any{
		"type":         "hitl_feedback",
		"checkpointId": req.Checkpoint.ID,
		"review_type":  "tables",
		"action":       "approve",
	}))

	final := readUntil(t, ws, string(domain.EventFinalResult))
	require.NotNil(t, final.Result)
	assert.Equal(t, domain.StepWorkflowCompleted, final.Result.Status)
}

func TestServer_RejectStopsRun(t *testing.T) {
	_, ws := newTestServer(t)
	readMessage(t, ws) // connected

	require.NoError(t, ws.WriteJSON(map[string]string{
		"type":  "start",
		"query": "total revenue by region",
		"mode":  "interactive",
	}))

	req := readUntil(t, ws, string(domain.EventReviewRequested))
	require.NoError(t, ws.WriteJSON(map[string]any{
		"type":         "hitl_feedback",
		"checkpointId": req.Checkpoint.ID,
		"review_type":  "databases",
		"action":       "reject",
	}))

	for {
		msg := readMessage(t, ws)
		if msg.Type == string(domain.EventError) {
			assert.Contains(t, msg.Message, "rejected")
			return
		}
	}
}

func TestServer_CancelTerminatesRun(t *testing.T) {
	_, ws := newTestServer(t)
	readMessage(t, ws) // connected

	require.NoError(t, ws.WriteJSON(map[string]string{
		"type":  "start",
		"query": "total revenue by region",
		"mode":  "interactive",
	}))

	// Suspend at the first review so the cancel lands deterministically.
	readUntil(t, ws, string(domain.EventReviewRequested))
	require.NoError(t, ws.WriteJSON(map[string]string{"type": "cancel"}))

	msg := readUntil(t, ws, string(domain.EventCancelled))
	assert.Contains(t, msg.Message, "cancelled")
	require.NotNil(t, msg.State)
	assert.Equal(t, domain.StepCancelled, msg.State.CurrentStep)

	// Nothing may follow the terminal message, no trailing state updates.
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var trailing outboundMessage
	err := ws.ReadJSON(&trailing)
	require.Error(t, err, "unexpected message after cancelled: %+v", trailing)
	assert.True(t, os.IsTimeout(err))
}

func TestServer_UnknownMessageTypeDoesNotKillConnection(t *testing.T) {
	_, ws := newTestServer(t)
	readMessage(t, ws) // connected

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "bogus"}))
	msg := readMessage(t, ws)
	assert.Equal(t, string(domain.EventError), msg.Type)

	// The connection still accepts a run afterwards.
	require.NoError(t, ws.WriteJSON(map[string]string{
		"type":  "start",
		"query": "what tables are in sales?",
		"mode":  "normal",
	}))
	final := readUntil(t, ws, string(domain.EventFinalResult))
	require.NotNil(t, final.Result)
	assert.Equal(t, domain.StepMetadataCompleted, final.Result.Status)
}

func TestServer_InvalidFeedbackActionIsReported(t *testing.T) {
	_, ws := newTestServer(t)
	readMessage(t, ws) // connected

	require.NoError(t, ws.WriteJSON(map[string]any{
		"type":         "hitl_feedback",
		"checkpointId": "x",
		"review_type":  "databases",
		"action":       "maybe",
	}))
	msg := readMessage(t, ws)
	assert.Equal(t, string(domain.EventError), msg.Type)
	assert.Contains(t, msg.Message, "maybe")
}
