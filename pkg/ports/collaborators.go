package ports

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// Classifier decides whether a request is a metadata question or a data
// question, and which query dialect to target.
type Classifier interface {
	Classify(ctx context.Context, query string) (domain.RoutingInfo, error)
}

// MetadataResponder answers schema/metadata questions in free text.
type MetadataResponder interface {
	Answer(ctx context.Context, query string) (string, error)
}

// SchemaCatalog is the schema/metadata lookup behind the identification
// stages. Implementations own any shared retrieval index; every method must
// be safe for concurrent invocation from multiple runs.
type SchemaCatalog interface {
	// Databases returns candidate databases for the query, best match first.
	Databases(ctx context.Context, query string) ([]string, error)

	// Tables returns candidate tables (qualified as database.table) within
	// the given databases.
	Tables(ctx context.Context, query string, databases []string) ([]string, error)

	// Columns returns candidate columns (qualified as database.table.column)
	// within the given tables.
	Columns(ctx context.Context, query string, tables []string) ([]string, error)

	// Schema renders the schema context for the selected identifiers.
	Schema(ctx context.Context, databases, tables, columns []string) (string, error)
}

// QueryPlanner turns a request plus schema context into an opaque text plan.
type QueryPlanner interface {
	Plan(ctx context.Context, query, schemaContext string) (string, error)
}

// GenerateRequest bundles everything the generator needs for one attempt.
// Feedback is non-nil on regeneration attempts and carries the validator's
// verdict from the rejected attempt.
type GenerateRequest struct {
	Query         string
	Dialect       string
	SchemaContext string
	Plan          string
	Feedback      *domain.ValidationFeedback
}

// QueryGenerator produces a structured query for a dialect.
type QueryGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (domain.GeneratedQuery, error)
}

// QueryValidator checks a generated query against the schema context.
type QueryValidator interface {
	Validate(ctx context.Context, q domain.GeneratedQuery, dialect, schemaContext string) (domain.ValidationFeedback, error)
}
