package datatable

// ColumnType is the closed set of cell kinds a table can render.
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeBadge    ColumnType = "badge"
	TypeBoolean  ColumnType = "boolean"
	TypeDate     ColumnType = "date"
	TypeDatetime ColumnType = "datetime"
	TypeCurrency ColumnType = "currency"
	TypeNumber   ColumnType = "number"
	TypeLink     ColumnType = "link"
	TypeAvatar   ColumnType = "avatar"
	TypeSafeHTML ColumnType = "safehtml"
)

// AllColumnTypes is used to validate renderer registries for completeness.
var AllColumnTypes = []ColumnType{
	TypeText, TypeBadge, TypeBoolean, TypeDate, TypeDatetime,
	TypeCurrency, TypeNumber, TypeLink, TypeAvatar, TypeSafeHTML,
}

// Option keys understood by the transformer and the default renderers.
const (
	OptFormat            = "format"            // date/datetime layout (Go reference layout)
	OptDecimals          = "decimals"          // currency/number decimal places
	OptDecimalSeparator  = "decimalSeparator"  // default "."
	OptThousandSeparator = "thousandSeparator" // default ","
	OptCurrencySymbol    = "currencySymbol"    // default "$"
	OptColor             = "color"             // badge color class
	OptLinkBase          = "linkBase"          // link href prefix
)

// Column is an immutable descriptor of one displayable, queryable field.
// Build it with NewColumn and the chained setters, then hand it to a Table;
// after Table.Build it is only ever read.
type Column struct {
	key        string
	label      string
	colType    ColumnType
	dbColumn   string
	sortable   bool
	searchable bool
	relation   string // relation path, empty for base-table columns
	relColumn  string // column on the related table
	options    map[string]string
}

// NewColumn starts a column definition. The database column defaults to the
// key and can be overridden with DBColumn.
func NewColumn(key, label string, colType ColumnType) *Column {
	return &Column{
		key:      key,
		label:    label,
		colType:  colType,
		dbColumn: key,
		options:  map[string]string{},
	}
}

// DBColumn overrides the underlying base-table column name.
func (c *Column) DBColumn(name string) *Column {
	c.dbColumn = name
	return c
}

// Sortable marks the column as a valid sortBy target.
func (c *Column) Sortable() *Column {
	c.sortable = true
	return c
}

// Searchable includes the column in free-text search.
func (c *Column) Searchable() *Column {
	c.searchable = true
	return c
}

// Relationship binds the column to a relation registered on the table.
// The path must match a Relation.Path or Table.Build fails.
func (c *Column) Relationship(path, column string) *Column {
	c.relation = path
	c.relColumn = column
	return c
}

// Option sets a per-type rendering option (format string, color, ...).
func (c *Column) Option(key, value string) *Column {
	c.options[key] = value
	return c
}

func (c *Column) Key() string      { return c.key }
func (c *Column) Label() string    { return c.label }
func (c *Column) Type() ColumnType { return c.colType }
func (c *Column) IsSortable() bool { return c.sortable }

// Options returns a copy so callers cannot mutate the descriptor.
func (c *Column) Options() map[string]string {
	out := make(map[string]string, len(c.options))
	for k, v := range c.options {
		out[k] = v
	}
	return out
}
