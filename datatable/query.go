package datatable

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Options carries one request's worth of datatable state. It is rebuilt
// from scratch on every interaction and discarded after the query runs.
type Options struct {
	Table   *Table
	Filters map[string][]string // raw filter values, unset keys absent
	Search  string
	SortBy  string
	SortDir string // "asc" or "desc", default asc
	Page    int
	PerPage int
}

// Query is a ready-to-execute statement with its positional args.
type Query struct {
	SQL  string
	Args []interface{}
}

type queryState struct {
	conditions []string
	args       []interface{}
	idx        int
}

func (q *queryState) bind(v interface{}) string {
	q.args = append(q.args, v)
	q.idx++
	return "$" + strconv.Itoa(q.idx)
}

// BuildQuery assembles the SELECT for the current options. The steps apply
// in fixed order and compose: joins, search, filters, sort, pagination.
func BuildQuery(opts Options) (Query, error) {
	t := opts.Table
	st := &queryState{}

	selects, hasMulti := selectList(t)
	joins := joinClauses(t)

	applySearch(t, opts.Search, st)
	if err := applyFilters(t, opts, st); err != nil {
		return Query{}, err
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(selects, ", "))
	b.WriteString(" FROM " + t.baseTable + " " + t.baseAlias)
	for _, j := range joins {
		b.WriteString(" " + j)
	}
	if len(st.conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(st.conditions, " AND "))
	}
	if hasMulti {
		b.WriteString(" GROUP BY " + strings.Join(groupByList(t), ", "))
	}
	b.WriteString(" ORDER BY " + orderClause(t, opts.SortBy, opts.SortDir))

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 10
	}
	b.WriteString(" LIMIT " + st.bind(perPage))
	b.WriteString(" OFFSET " + st.bind((page-1)*perPage))

	return Query{SQL: b.String(), Args: st.args}, nil
}

// BuildCountQuery assembles the matching COUNT under the same constraints,
// without sort and pagination.
func BuildCountQuery(opts Options) (Query, error) {
	t := opts.Table
	st := &queryState{}

	_, hasMulti := selectList(t)
	joins := joinClauses(t)

	applySearch(t, opts.Search, st)
	if err := applyFilters(t, opts, st); err != nil {
		return Query{}, err
	}

	var b strings.Builder
	if hasMulti {
		b.WriteString("SELECT COUNT(DISTINCT " + t.baseAlias + "." + t.primaryKey + ")")
	} else {
		b.WriteString("SELECT COUNT(*)")
	}
	b.WriteString(" FROM " + t.baseTable + " " + t.baseAlias)
	for _, j := range joins {
		b.WriteString(" " + j)
	}
	if len(st.conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(st.conditions, " AND "))
	}
	return Query{SQL: b.String(), Args: st.args}, nil
}

// selectList returns the select expressions (primary key first) and
// whether any multi-valued relation column is present.
func selectList(t *Table) ([]string, bool) {
	selects := []string{t.baseAlias + "." + t.primaryKey + " AS _id"}
	hasMulti := false
	for _, c := range t.columns {
		if c.relation != "" && t.relations[c.relation].Multi {
			hasMulti = true
			selects = append(selects, "string_agg(DISTINCT "+t.sqlExpr(c)+"::text, ',') AS "+c.key)
			continue
		}
		selects = append(selects, t.sqlExpr(c)+" AS "+c.key)
	}
	return selects, hasMulti
}

func groupByList(t *Table) []string {
	group := []string{t.baseAlias + "." + t.primaryKey}
	for _, c := range t.columns {
		if c.relation != "" && t.relations[c.relation].Multi {
			continue
		}
		group = append(group, t.sqlExpr(c))
	}
	return group
}

// joinClauses emits one join per distinct relation path referenced by any
// column. Filters bind to columns, so their relations are covered too.
func joinClauses(t *Table) []string {
	var joins []string
	seen := map[string]bool{}
	for _, c := range t.columns {
		if c.relation == "" || seen[c.relation] {
			continue
		}
		seen[c.relation] = true
		r := t.relations[c.relation]
		alias := relationAlias(r.Path)
		if r.Multi {
			pv := alias + "_pv"
			joins = append(joins,
				"LEFT JOIN "+r.PivotTable+" "+pv+" ON "+pv+"."+r.PivotLocal+" = "+t.baseAlias+"."+t.primaryKey,
				"LEFT JOIN "+r.Table+" "+alias+" ON "+alias+"."+r.RelatedColumn+" = "+pv+"."+r.PivotRelated,
			)
			continue
		}
		joins = append(joins,
			"LEFT JOIN "+r.Table+" "+alias+" ON "+alias+"."+r.RelatedColumn+" = "+t.baseAlias+"."+r.LocalColumn)
	}
	return joins
}

// applySearch ORs a case-insensitive partial match over every searchable
// column. With no searchable columns the term is ignored, not an error.
func applySearch(t *Table, term string, st *queryState) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	var parts []string
	for _, c := range t.columns {
		if !c.searchable {
			continue
		}
		parts = append(parts, t.sqlExpr(c)+"::text ILIKE "+st.bind("%"+term+"%"))
	}
	if len(parts) > 0 {
		st.conditions = append(st.conditions, "("+strings.Join(parts, " OR ")+")")
	}
}

// applyFilters translates each present filter value with the operator its
// type implies. The bound column is guaranteed valid by Table.Build.
func applyFilters(t *Table, opts Options, st *queryState) error {
	for _, f := range t.filters {
		col := t.columnsByKey[f.columnKey]
		expr := t.sqlExpr(col)
		switch f.filterType {
		case FilterSelect, FilterRelationship:
			if v, ok := firstValue(opts.Filters, f.key); ok {
				st.conditions = append(st.conditions, expr+" = "+st.bind(v))
			}
		case FilterMultiselect:
			vals := presentValues(opts.Filters, f.key)
			if len(vals) > 0 {
				st.conditions = append(st.conditions, expr+" = ANY("+st.bind(pq.Array(vals))+")")
			}
		case FilterBoolean:
			// Absent or empty means "no filter", never "false".
			if v, ok := firstValue(opts.Filters, f.key); ok {
				switch strings.ToLower(v) {
				case "true", "1":
					st.conditions = append(st.conditions, expr+" = "+st.bind(true))
				case "false", "0":
					st.conditions = append(st.conditions, expr+" = "+st.bind(false))
				}
			}
		case FilterDateRange:
			if v, ok := firstValue(opts.Filters, f.key+"_from"); ok {
				st.conditions = append(st.conditions, expr+" >= "+st.bind(v))
			}
			if v, ok := firstValue(opts.Filters, f.key+"_to"); ok {
				st.conditions = append(st.conditions, expr+" <= "+st.bind(v))
			}
		}
	}
	return nil
}

// orderClause resolves sortBy against known sortable columns. Unknown or
// unsortable keys silently fall back to primary key ascending so paging
// stays deterministic.
func orderClause(t *Table, sortBy, sortDir string) string {
	if sortBy != "" {
		if c, ok := t.columnsByKey[sortBy]; ok && c.sortable {
			if c.relation == "" || !t.relations[c.relation].Multi {
				dir := "ASC"
				if strings.EqualFold(sortDir, "desc") {
					dir = "DESC"
				}
				return t.sqlExpr(c) + " " + dir
			}
		}
	}
	return t.baseAlias + "." + t.primaryKey + " ASC"
}

func firstValue(values map[string][]string, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	v := strings.TrimSpace(vs[0])
	if v == "" {
		return "", false
	}
	return v, true
}

func presentValues(values map[string][]string, key string) []string {
	var out []string
	for _, v := range values[key] {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Run executes the data and count queries and returns raw rows keyed by
// column key. Relationship values are already part of the single query, so
// no additional statements run per row.
func Run(db *sql.DB, opts Options) ([]map[string]interface{}, int, error) {
	q, err := BuildQuery(opts)
	if err != nil {
		return nil, 0, err
	}
	rows, err := db.Query(q.SQL, q.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}
	var out []map[string]interface{}
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, 0, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, name := range cols {
			if b, ok := raw[i].([]byte); ok {
				row[name] = string(b)
				continue
			}
			row[name] = raw[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	cq, err := BuildCountQuery(opts)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := db.QueryRow(cq.SQL, cq.Args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
