package lang2query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nithiin7/lang2query/pkg/domain"
)

const demoCatalog = `
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

func newCatalogEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoCatalog), 0o600))
	eng, err := NewFromCatalog(path, opts...)
	require.NoError(t, err)
	return eng
}

func TestQuery_EndToEnd(t *testing.T) {
	eng := newCatalogEngine(t)

	result, err := eng.Query(context.Background(), "total revenue by region")
	require.NoError(t, err)

	assert.Equal(t, domain.StepWorkflowCompleted, result.Status)
	assert.True(t, result.IsQueryValid)
	require.NotNil(t, result.Query)
	assert.Contains(t, result.Query.Query, "FROM sales.orders")
	assert.Equal(t, []string{"sales"}, result.Databases)
	assert.Equal(t, []string{"sales.orders"}, result.Tables)
}

func TestQuery_MetadataQuestion(t *testing.T) {
	eng := newCatalogEngine(t)

	result, err := eng.Query(context.Background(), "what tables are in the sales database?")
	require.NoError(t, err)

	assert.Equal(t, domain.StepMetadataCompleted, result.Status)
	assert.Contains(t, result.MetadataResponse, "Table orders")
	assert.Nil(t, result.Query)
}

func TestStart_InteractiveRunSuspendsForReview(t *testing.T) {
	eng := newCatalogEngine(t)

	run, err := eng.Start(context.Background(), "total revenue by region", domain.ModeInteractive)
	require.NoError(t, err)
	defer run.Cancel()

	for ev := range run.Events() {
		if ev.Type == domain.EventReviewRequested {
			require.NotNil(t, ev.Checkpoint)
			assert.Equal(t, domain.ReviewDatabases, ev.Checkpoint.Type)
			return
		}
		require.False(t, ev.Terminal(), "run must suspend before terminating")
	}
	t.Fatal("no review request observed")
}

func TestNewFromCatalog_MissingFile(t *testing.T) {
	_, err := NewFromCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNew_RejectsEmptyQuery(t *testing.T) {
	eng := newCatalogEngine(t)

	_, err := eng.Start(context.Background(), "", domain.ModeNormal)
	assert.Error(t, err)
}
