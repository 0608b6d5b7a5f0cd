package datatable

// FilterType is the closed set of filter control kinds.
type FilterType string

const (
	FilterSelect       FilterType = "select"
	FilterMultiselect  FilterType = "multiselect"
	FilterBoolean      FilterType = "boolean"
	FilterDateRange    FilterType = "daterange"
	FilterRelationship FilterType = "relationship"
)

// AllFilterTypes is used to validate renderer registries for completeness.
var AllFilterTypes = []FilterType{
	FilterSelect, FilterMultiselect, FilterBoolean, FilterDateRange, FilterRelationship,
}

// FilterOption is one selectable value of a select-like filter.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionsProvider supplies filter options resolved at render time, for
// option lists that live in the database (roles, teams, ...).
type OptionsProvider interface {
	FilterOptions() ([]FilterOption, error)
}

// StaticOptions is an OptionsProvider over a fixed list.
type StaticOptions []FilterOption

func (s StaticOptions) FilterOptions() ([]FilterOption, error) { return s, nil }

// Filter is an immutable descriptor of one user-adjustable constraint.
// Every filter binds to exactly one column key of the same table; binding
// to a missing column is a Table.Build error, never a request-time one.
type Filter struct {
	key        string
	label      string
	filterType FilterType
	columnKey  string
	provider   OptionsProvider
}

// NewFilter starts a filter definition. The bound column defaults to the
// filter key and can be overridden with Column.
func NewFilter(key, label string, filterType FilterType) *Filter {
	return &Filter{
		key:        key,
		label:      label,
		filterType: filterType,
		columnKey:  key,
	}
}

// Column binds the filter to a different column key.
func (f *Filter) Column(key string) *Filter {
	f.columnKey = key
	return f
}

// Options attaches the source of selectable values.
func (f *Filter) Options(p OptionsProvider) *Filter {
	f.provider = p
	return f
}

func (f *Filter) Key() string      { return f.key }
func (f *Filter) Label() string    { return f.label }
func (f *Filter) Type() FilterType { return f.filterType }
func (f *Filter) ColumnKey() string { return f.columnKey }

// ResolveOptions resolves the option list, empty when no provider is set.
func (f *Filter) ResolveOptions() ([]FilterOption, error) {
	if f.provider == nil {
		return nil, nil
	}
	return f.provider.FilterOptions()
}
