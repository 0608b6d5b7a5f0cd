package datatable

import "fmt"

// Relation describes how a related table joins to the base table. Multi
// relations go through a pivot table and aggregate to a list per row.
type Relation struct {
	Path          string // unique key referenced by Column.Relationship
	Table         string // related table name
	LocalColumn   string // column on the base table (single relations)
	RelatedColumn string // column on the related table the join matches
	Multi         bool
	PivotTable    string // pivot table (multi relations)
	PivotLocal    string // pivot column pointing at the base table
	PivotRelated  string // pivot column pointing at the related table
}

// Table is the declarative definition of one server-driven listing.
// Assemble it with the Add* methods, then call Build exactly once; Build
// performs all configuration validation so request handling never does.
type Table struct {
	name       string
	baseTable  string
	baseAlias  string
	primaryKey string

	columns   []*Column
	filters   []*Filter
	relations map[string]Relation

	columnsByKey map[string]*Column
	built        bool
}

// NewTable creates a table definition over a base table and its primary key.
func NewTable(name, baseTable, primaryKey string) *Table {
	return &Table{
		name:       name,
		baseTable:  baseTable,
		baseAlias:  baseTable,
		primaryKey: primaryKey,
		relations:  map[string]Relation{},
	}
}

// BaseAlias overrides the alias used for the base table in generated SQL.
func (t *Table) BaseAlias(alias string) *Table {
	t.baseAlias = alias
	return t
}

func (t *Table) AddRelation(r Relation) *Table {
	t.relations[r.Path] = r
	return t
}

func (t *Table) AddColumn(c *Column) *Table {
	t.columns = append(t.columns, c)
	return t
}

func (t *Table) AddFilter(f *Filter) *Table {
	t.filters = append(t.filters, f)
	return t
}

// Build validates the whole definition and freezes it. Duplicate keys,
// references to unregistered relations, and filters bound to unknown
// columns are configuration errors reported here, at startup.
func (t *Table) Build(registry *Registry) error {
	if t.built {
		return fmt.Errorf("datatable %q: already built", t.name)
	}
	t.columnsByKey = make(map[string]*Column, len(t.columns))
	for _, c := range t.columns {
		if _, dup := t.columnsByKey[c.key]; dup {
			return fmt.Errorf("datatable %q: duplicate column key %q", t.name, c.key)
		}
		if c.relation != "" {
			if _, ok := t.relations[c.relation]; !ok {
				return fmt.Errorf("datatable %q: column %q references unregistered relation %q", t.name, c.key, c.relation)
			}
		}
		if registry != nil && !registry.HasComponent(string(c.colType)) {
			return fmt.Errorf("datatable %q: column %q has unregistered type %q", t.name, c.key, c.colType)
		}
		t.columnsByKey[c.key] = c
	}
	seenFilters := make(map[string]bool, len(t.filters))
	for _, f := range t.filters {
		if seenFilters[f.key] {
			return fmt.Errorf("datatable %q: duplicate filter key %q", t.name, f.key)
		}
		seenFilters[f.key] = true
		col, ok := t.columnsByKey[f.columnKey]
		if !ok {
			return fmt.Errorf("datatable %q: filter %q binds to unknown column %q", t.name, f.key, f.columnKey)
		}
		if f.filterType == FilterRelationship && col.relation == "" {
			return fmt.Errorf("datatable %q: relationship filter %q binds to non-relationship column %q", t.name, f.key, f.columnKey)
		}
	}
	t.built = true
	return nil
}

func (t *Table) Name() string       { return t.name }
func (t *Table) Columns() []*Column { return t.columns }
func (t *Table) Filters() []*Filter { return t.filters }

// ColumnByKey returns nil for unknown keys.
func (t *Table) ColumnByKey(key string) *Column { return t.columnsByKey[key] }

// sqlExpr is the fully qualified SQL expression selecting the column.
func (t *Table) sqlExpr(c *Column) string {
	if c.relation == "" {
		return t.baseAlias + "." + c.dbColumn
	}
	return relationAlias(c.relation) + "." + c.relColumn
}

// relationAlias derives a stable join alias from a relation path so the
// same relation requested twice reuses one join.
func relationAlias(path string) string {
	out := make([]rune, 0, len(path)+4)
	out = append(out, 'r', 'e', 'l', '_')
	for _, r := range path {
		if r == '.' || r == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
