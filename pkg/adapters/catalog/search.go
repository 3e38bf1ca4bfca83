package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// tokenize lowercases and splits a query, stripping punctuation.
func tokenize(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 { // skip stopword-sized tokens
			out = append(out, f)
		}
	}
	return out
}

func matches(term string, name, description string, keywords []string) int {
	score := 0
	if strings.Contains(name, term) || strings.Contains(term, name) {
		score += 3
	}
	for _, kw := range keywords {
		if strings.Contains(strings.ToLower(kw), term) || strings.Contains(term, strings.ToLower(kw)) {
			score += 2
		}
	}
	if strings.Contains(strings.ToLower(description), term) {
		score++
	}
	return score
}

func scoreDatabase(db *Database, terms []string) int {
	score := 0
	for _, term := range terms {
		score += matches(term, strings.ToLower(db.Name), db.Description, db.Keywords)
		for i := range db.Tables {
			score += scoreTable(&db.Tables[i], []string{term}) / 2
		}
	}
	return score
}

func scoreTable(t *TableDef, terms []string) int {
	score := 0
	for _, term := range terms {
		score += matches(term, strings.ToLower(t.Name), t.Description, t.Keywords)
		for _, col := range t.Columns {
			score += matches(term, strings.ToLower(col.Name), col.Description, col.Keywords) / 2
		}
	}
	return score
}

type scored struct {
	name  string
	score int
}

func rank(items []scored) []string {
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it.score > 0 {
			out = append(out, it.name)
		}
	}
	return out
}

// Databases returns the databases relevant to the query, best match first.
func (c *Catalog) Databases(ctx context.Context, query string) ([]string, error) {
	terms := tokenize(query)
	items := make([]scored, 0, len(c.model.Databases))
	for i := range c.model.Databases {
		db := &c.model.Databases[i]
		items = append(items, scored{name: db.Name, score: scoreDatabase(db, terms)})
	}
	return rank(items), nil
}

// Tables returns relevant database.table identifiers within the given
// databases, best match first.
func (c *Catalog) Tables(ctx context.Context, query string, databases []string) ([]string, error) {
	terms := tokenize(query)
	var items []scored
	for _, name := range databases {
		db, ok := c.database(name)
		if !ok {
			continue
		}
		for i := range db.Tables {
			t := &db.Tables[i]
			items = append(items, scored{
				name:  db.Name + "." + t.Name,
				score: scoreTable(t, terms),
			})
		}
	}
	return rank(items), nil
}

// Columns returns relevant database.table.column identifiers within the
// given tables. Key-ish columns (ids) are always included so the generator
// can join and identify rows.
func (c *Catalog) Columns(ctx context.Context, query string, tables []string) ([]string, error) {
	terms := tokenize(query)
	var out []string
	for _, qualified := range tables {
		db, t, ok := c.table(qualified)
		if !ok {
			continue
		}
		for _, col := range t.Columns {
			score := 0
			for _, term := range terms {
				score += matches(term, strings.ToLower(col.Name), col.Description, col.Keywords)
			}
			if score > 0 || strings.HasSuffix(col.Name, "_id") || col.Name == "id" {
				out = append(out, db.Name+"."+t.Name+"."+col.Name)
			}
		}
	}
	return out, nil
}

// Schema renders the schema context for the selected identifiers as DDL-like
// text the planner and generator consume.
func (c *Catalog) Schema(ctx context.Context, databases, tables, columns []string) (string, error) {
	selected := make(map[string]bool, len(columns))
	for _, col := range columns {
		selected[col] = true
	}

	var b strings.Builder
	for _, qualified := range tables {
		db, t, ok := c.table(qualified)
		if !ok {
			return "", fmt.Errorf("unknown table %q in schema request", qualified)
		}
		fmt.Fprintf(&b, "TABLE %s.%s -- %s\n", db.Name, t.Name, t.Description)
		for _, col := range t.Columns {
			full := db.Name + "." + t.Name + "." + col.Name
			if len(selected) > 0 && !selected[full] {
				continue
			}
			fmt.Fprintf(&b, "  %s %s -- %s\n", col.Name, col.Type, col.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
