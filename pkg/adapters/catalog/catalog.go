// Package catalog implements every collaborator port over a static schema
// catalog loaded from YAML. It is fully deterministic: classification,
// identification, planning, generation, and validation all derive from the
// declared databases, tables, and columns. It backs the one-shot CLI, the
// demo server, and integration tests.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Column describes one column of a table.
type Column struct {
	Name        string   `mapstructure:"name"`
	Type        string   `mapstructure:"type"`
	Description string   `mapstructure:"description"`
	Keywords    []string `mapstructure:"keywords"`
}

// TableDef describes one table and its columns.
type TableDef struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Keywords    []string `mapstructure:"keywords"`
	Columns     []Column `mapstructure:"columns"`
}

// Database describes one database and its tables.
type Database struct {
	Name        string     `mapstructure:"name"`
	Description string     `mapstructure:"description"`
	Keywords    []string   `mapstructure:"keywords"`
	Tables      []TableDef `mapstructure:"tables"`
}

// Model is the root of a catalog definition.
type Model struct {
	Dialect   string     `mapstructure:"dialect"`
	Databases []Database `mapstructure:"databases"`
}

// Catalog answers classification, identification, schema, planning,
// generation, and validation requests from a static model. Safe for
// concurrent use: the model is read-only after construction.
type Catalog struct {
	model Model
}

// New creates a catalog from an in-memory model.
func New(model Model) (*Catalog, error) {
	if len(model.Databases) == 0 {
		return nil, fmt.Errorf("catalog has no databases")
	}
	if model.Dialect == "" {
		model.Dialect = "sql"
	}
	return &Catalog{model: model}, nil
}

// Load reads a catalog definition from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog definition.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	var model Model
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &model,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid catalog definition: %w", err)
	}

	return New(model)
}

// Dialect returns the catalog's query dialect.
func (c *Catalog) Dialect() string {
	return c.model.Dialect
}

// database finds a database by name.
func (c *Catalog) database(name string) (*Database, bool) {
	for i := range c.model.Databases {
		if c.model.Databases[i].Name == name {
			return &c.model.Databases[i], true
		}
	}
	return nil, false
}

// table resolves a database.table identifier.
func (c *Catalog) table(qualified string) (*Database, *TableDef, bool) {
	parts := strings.SplitN(qualified, ".", 2)
	if len(parts) != 2 {
		return nil, nil, false
	}
	db, ok := c.database(parts[0])
	if !ok {
		return nil, nil, false
	}
	for i := range db.Tables {
		if db.Tables[i].Name == parts[1] {
			return db, &db.Tables[i], true
		}
	}
	return nil, nil, false
}
