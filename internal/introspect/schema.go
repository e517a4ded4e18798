package introspect

import (
	"fmt"
	"slices"
	"strings"
)

type Schema struct {
	Tables  []Table
	Indexes []Index
}

type Table struct {
	Name        string
	Columns     []Column
	Constraints []Constraint
}

type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

type Constraint struct {
	Name       string
	Type       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
}

type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

func (t *Table) primaryKey() []string {
	for _, c := range t.Constraints {
		if c.Type == "PRIMARY KEY" {
			return c.Columns
		}
	}
	return nil
}

// Lint reports tables without a primary key and foreign keys whose leading
// column has no index.
func (s *Schema) Lint() []string {
	var warnings []string

	indexed := make(map[string]map[string]bool)
	for _, idx := range s.Indexes {
		if indexed[idx.Table] == nil {
			indexed[idx.Table] = make(map[string]bool)
		}
		if len(idx.Columns) > 0 {
			indexed[idx.Table][idx.Columns[0]] = true
		}
	}

	for _, table := range s.Tables {
		pk := table.primaryKey()
		if len(pk) == 0 {
			warnings = append(warnings, fmt.Sprintf("table %q has no primary key", table.Name))
		}

		for _, c := range table.Constraints {
			if c.Type != "FOREIGN KEY" || len(c.Columns) == 0 {
				continue
			}
			leading := c.Columns[0]
			if len(pk) > 0 && pk[0] == leading {
				continue
			}
			if indexed[table.Name][leading] {
				continue
			}
			warnings = append(warnings, fmt.Sprintf(
				"table %q: foreign key on %s referencing %q has no index",
				table.Name, leading, c.RefTable,
			))
		}
	}

	return warnings
}

// Requirement is a constraint the blog relies on.
type Requirement struct {
	Table    string
	Type     string
	Columns  []string
	RefTable string
	OnDelete string
}

func (r Requirement) String() string {
	desc := fmt.Sprintf("%s %s (%s)", r.Table, r.Type, strings.Join(r.Columns, ", "))
	if r.RefTable != "" {
		desc += " REFERENCES " + r.RefTable
	}
	if r.OnDelete != "" {
		desc += " ON DELETE " + r.OnDelete
	}
	return desc
}

// Requirements are the constraints behind slug uniqueness, the one-row-per-pair
// rule of post_categories and the cascading cleanup of tags.
var Requirements = []Requirement{
	{Table: "post", Type: "PRIMARY KEY", Columns: []string{"id"}},
	{Table: "post", Type: "UNIQUE", Columns: []string{"slug"}},
	{Table: "categories", Type: "PRIMARY KEY", Columns: []string{"id"}},
	{Table: "categories", Type: "UNIQUE", Columns: []string{"slug"}},
	{Table: "post_categories", Type: "PRIMARY KEY", Columns: []string{"post_id", "category_id"}},
	{Table: "post_categories", Type: "FOREIGN KEY", Columns: []string{"post_id"}, RefTable: "post", OnDelete: "CASCADE"},
	{Table: "post_categories", Type: "FOREIGN KEY", Columns: []string{"category_id"}, RefTable: "categories", OnDelete: "CASCADE"},
}

func (r Requirement) satisfiedBy(c Constraint) bool {
	if c.Type != r.Type || !slices.Equal(c.Columns, r.Columns) {
		return false
	}
	if r.RefTable != "" && c.RefTable != r.RefTable {
		return false
	}
	return r.OnDelete == "" || c.OnDelete == r.OnDelete
}

// Missing returns the requirements the schema does not meet.
func (s *Schema) Missing(reqs []Requirement) []Requirement {
	var missing []Requirement
	for _, req := range reqs {
		table, ok := s.Table(req.Table)
		if !ok || !slices.ContainsFunc(table.Constraints, req.satisfiedBy) {
			missing = append(missing, req)
		}
	}
	return missing
}
