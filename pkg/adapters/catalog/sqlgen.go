package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

// Plan describes the deterministic strategy for answering the query from the
// rendered schema context.
func (c *Catalog) Plan(ctx context.Context, query, schemaContext string) (string, error) {
	tables := tablesInSchema(schemaContext)
	if len(tables) == 0 {
		return "", fmt.Errorf("schema context names no tables")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "1. Read from %s.\n", strings.Join(tables, ", "))
	b.WriteString("2. Project the columns listed in the schema context.\n")
	b.WriteString("3. Apply filters implied by the request terms.\n")
	return b.String(), nil
}

// Generate builds a SELECT over the first table in the schema context. On
// regeneration it appends the validator's hints as a comment so attempts are
// distinguishable.
func (c *Catalog) Generate(ctx context.Context, req ports.GenerateRequest) (domain.GeneratedQuery, error) {
	tables := tablesInSchema(req.SchemaContext)
	if len(tables) == 0 {
		return domain.GeneratedQuery{}, fmt.Errorf("no table available for generation")
	}
	target := tables[0]
	cols := columnsInSchema(req.SchemaContext, target)
	projection := "*"
	if len(cols) > 0 {
		projection = strings.Join(cols, ", ")
	}

	q := fmt.Sprintf("SELECT %s FROM %s", projection, target)
	if req.Feedback != nil && len(req.Feedback.Suggestions) > 0 {
		q += " -- revised: " + strings.Join(req.Feedback.Suggestions, "; ")
	}
	return domain.GeneratedQuery{
		Query:       q,
		Explanation: fmt.Sprintf("Selects %s from %s to answer: %s", projection, target, req.Query),
	}, nil
}

// Validate checks that every table the query references exists in the
// catalog and that the schema context covers it.
func (c *Catalog) Validate(ctx context.Context, q domain.GeneratedQuery, dialect, schemaContext string) (domain.ValidationFeedback, error) {
	if strings.TrimSpace(q.Query) == "" {
		return domain.ValidationFeedback{
			Valid:   false,
			Code:    domain.IssueGeneration,
			Details: "generated query is empty",
		}, nil
	}

	known := tablesInSchema(schemaContext)
	if len(known) == 0 {
		return domain.ValidationFeedback{
			Valid:       false,
			Code:        domain.IssueSchemaMissing,
			Details:     "schema context names no tables",
			Suggestions: []string{"re-run table identification"},
		}, nil
	}

	for _, table := range known {
		if strings.Contains(q.Query, table) {
			return domain.ValidationFeedback{Valid: true, Code: domain.IssueAccepted}, nil
		}
	}
	return domain.ValidationFeedback{
		Valid:       false,
		Code:        domain.IssueGeneration,
		Details:     "query references no table from the schema context",
		Suggestions: []string{"target one of: " + strings.Join(known, ", ")},
	}, nil
}

// tablesInSchema extracts the db.table identifiers from rendered schema text.
func tablesInSchema(schemaContext string) []string {
	var out []string
	for _, line := range strings.Split(schemaContext, "\n") {
		if rest, ok := strings.CutPrefix(line, "TABLE "); ok {
			name, _, _ := strings.Cut(rest, " ")
			out = append(out, name)
		}
	}
	return out
}

// columnsInSchema extracts the column names listed under one table.
func columnsInSchema(schemaContext, table string) []string {
	var out []string
	inTable := false
	for _, line := range strings.Split(schemaContext, "\n") {
		if rest, ok := strings.CutPrefix(line, "TABLE "); ok {
			name, _, _ := strings.Cut(rest, " ")
			inTable = name == table
			continue
		}
		if !inTable || !strings.HasPrefix(line, "  ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}
