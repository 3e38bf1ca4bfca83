package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nithiin7/lang2query/pkg/domain"
)

// metadataMarkers are phrases that signal a question about the schema itself
// rather than the data inside it.
var metadataMarkers = []string{
	"describe",
	"schema of",
	"schema for",
	"structure of",
	"what data do",
	"what information is available",
}

// Listing verbs and schema nouns classify in combination, so phrasings like
// "list all tables" or "show me the databases" route to metadata without
// enumerating every wording.
var (
	metadataVerbs    = []string{"list", "show", "what", "which", "display"}
	metadataSubjects = []string{"tables", "databases", "columns", "schema", "structure"}
)

// Classify routes metadata questions away from the query pipeline.
func (c *Catalog) Classify(ctx context.Context, query string) (domain.RoutingInfo, error) {
	meta := isMetadataQuery(strings.ToLower(query))
	return domain.RoutingInfo{IsMetadataQuery: meta, Dialect: c.model.Dialect}, nil
}

func isMetadataQuery(lower string) bool {
	for _, marker := range metadataMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	subject := false
	for _, s := range metadataSubjects {
		if strings.Contains(lower, s) {
			subject = true
			break
		}
	}
	if !subject {
		return false
	}
	for _, v := range metadataVerbs {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}

// Answer renders a metadata response describing the catalog contents that
// match the question, or the whole catalog when nothing matches.
func (c *Catalog) Answer(ctx context.Context, query string) (string, error) {
	terms := tokenize(query)

	var b strings.Builder
	matched := false
	for _, db := range c.model.Databases {
		if len(terms) > 0 && scoreDatabase(&db, terms) == 0 {
			continue
		}
		matched = true
		c.describeDatabase(&b, &db)
	}
	if !matched {
		for _, db := range c.model.Databases {
			c.describeDatabase(&b, &db)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (c *Catalog) describeDatabase(b *strings.Builder, db *Database) {
	fmt.Fprintf(b, "Database %s: %s\n", db.Name, db.Description)
	for _, t := range db.Tables {
		cols := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			cols = append(cols, col.Name)
		}
		fmt.Fprintf(b, "  Table %s (%s): %s\n", t.Name, strings.Join(cols, ", "), t.Description)
	}
}
