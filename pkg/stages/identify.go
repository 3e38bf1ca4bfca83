package stages

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

// DatabaseIdentifier selects candidate databases and submits them for review.
// The orchestrator resolves the review per the run's interaction mode.
type DatabaseIdentifier struct {
	catalog ports.SchemaCatalog
}

// NewDatabaseIdentifier creates the database identification stage.
func NewDatabaseIdentifier(catalog ports.SchemaCatalog) *DatabaseIdentifier {
	return &DatabaseIdentifier{catalog: catalog}
}

func (d *DatabaseIdentifier) Step() domain.Step { return domain.StepProcessingDatabaseIdentification }

func (d *DatabaseIdentifier) Name() string { return "database_identifier" }

func (d *DatabaseIdentifier) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	dbs, err := d.catalog.Databases(ctx, st.Query)
	if err != nil {
		return st, domain.Decision{}, err
	}
	if len(dbs) == 0 {
		return st, domain.Fail("no databases matched the request"), nil
	}
	return st, domain.RequestReview(domain.ReviewDatabases, dbs), nil
}

// TableIdentifier selects candidate tables within the approved databases and
// submits them for review.
type TableIdentifier struct {
	catalog ports.SchemaCatalog
}

// NewTableIdentifier creates the table identification stage.
func NewTableIdentifier(catalog ports.SchemaCatalog) *TableIdentifier {
	return &TableIdentifier{catalog: catalog}
}

func (t *TableIdentifier) Step() domain.Step { return domain.StepProcessingTableIdentifier }

func (t *TableIdentifier) Name() string { return "table_identifier" }

func (t *TableIdentifier) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	tables, err := t.catalog.Tables(ctx, st.Query, st.RelevantDatabases)
	if err != nil {
		return st, domain.Decision{}, err
	}
	if len(tables) == 0 {
		return st, domain.Fail("no tables matched the request in the selected databases"), nil
	}
	return st, domain.RequestReview(domain.ReviewTables, tables), nil
}

// ColumnIdentifier narrows the approved tables down to candidate columns.
// Columns are not reviewed; the table approval already scoped the data.
type ColumnIdentifier struct {
	catalog ports.SchemaCatalog
}

// NewColumnIdentifier creates the column identification stage.
func NewColumnIdentifier(catalog ports.SchemaCatalog) *ColumnIdentifier {
	return &ColumnIdentifier{catalog: catalog}
}

func (c *ColumnIdentifier) Step() domain.Step { return domain.StepProcessingColumnIdentifier }

func (c *ColumnIdentifier) Name() string { return "column_identifier" }

func (c *ColumnIdentifier) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	cols, err := c.catalog.Columns(ctx, st.Query, st.RelevantTables)
	if err != nil {
		return st, domain.Decision{}, err
	}
	if len(cols) == 0 {
		return st, domain.Fail("no columns matched the request in the selected tables"), nil
	}
	st.RelevantColumns = cols
	return st, domain.Advance(), nil
}

// SchemaBuilder renders the schema context for the selected identifiers.
type SchemaBuilder struct {
	catalog ports.SchemaCatalog
}

// NewSchemaBuilder creates the schema context stage.
func NewSchemaBuilder(catalog ports.SchemaCatalog) *SchemaBuilder {
	return &SchemaBuilder{catalog: catalog}
}

func (s *SchemaBuilder) Step() domain.Step { return domain.StepProcessingSchemaBuilder }

func (s *SchemaBuilder) Name() string { return "schema_builder" }

func (s *SchemaBuilder) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	schema, err := s.catalog.Schema(ctx, st.RelevantDatabases, st.RelevantTables, st.RelevantColumns)
	if err != nil {
		return st, domain.Decision{}, err
	}
	if schema == "" {
		return st, domain.Fail("schema context is empty for the selected identifiers"), nil
	}
	st.SchemaContext = schema
	return st, domain.Advance(), nil
}
