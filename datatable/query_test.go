package datatable

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtUserTable(t *testing.T) *Table {
	t.Helper()
	table := baseUserTable().
		AddFilter(NewFilter("roles", "Role", FilterRelationship)).
		AddFilter(NewFilter("active", "Active", FilterBoolean)).
		AddFilter(NewFilter("status", "Status", FilterSelect).Column("name")).
		AddFilter(NewFilter("teams", "Teams", FilterMultiselect).Column("team")).
		AddFilter(NewFilter("created_at", "Joined", FilterDateRange))
	require.NoError(t, table.Build(testRegistry(t)))
	return table
}

func TestBuildQuerySelectsPrimaryKeyFirst(t *testing.T) {
	q, err := BuildQuery(Options{Table: builtUserTable(t)})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "SELECT u.id AS _id")
	assert.Contains(t, q.SQL, "FROM users u")
}

func TestBuildQueryJoinsEachRelationOnce(t *testing.T) {
	table := baseUserTable().
		AddColumn(NewColumn("team_again", "Team again", TypeText).Relationship("team", "id"))
	require.NoError(t, table.Build(testRegistry(t)))
	q, err := BuildQuery(Options{Table: table})
	require.NoError(t, err)
	assert.Equal(t, 1, countOccurrences(q.SQL, "LEFT JOIN teams rel_team "))
}

func TestBuildQueryMultiRelationAggregates(t *testing.T) {
	q, err := BuildQuery(Options{Table: builtUserTable(t)})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "string_agg(DISTINCT rel_roles.name::text, ',') AS roles")
	assert.Contains(t, q.SQL, "LEFT JOIN role_user rel_roles_pv ON rel_roles_pv.user_id = u.id")
	assert.Contains(t, q.SQL, "GROUP BY u.id")
}

func TestBuildQuerySearchOrsSearchableColumns(t *testing.T) {
	q, err := BuildQuery(Options{Table: builtUserTable(t), Search: "ada"})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "u.name::text ILIKE $1 OR u.email::text ILIKE $2")
	assert.Equal(t, "%ada%", q.Args[0])
	assert.Equal(t, "%ada%", q.Args[1])
}

func TestBuildQueryBlankSearchIgnored(t *testing.T) {
	q, err := BuildQuery(Options{Table: builtUserTable(t), Search: "   "})
	require.NoError(t, err)
	assert.NotContains(t, q.SQL, "ILIKE")
}

func TestBuildQuerySelectFilter(t *testing.T) {
	q, err := BuildQuery(Options{
		Table:   builtUserTable(t),
		Filters: map[string][]string{"status": {"alice"}},
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "u.name = $1")
	assert.Equal(t, "alice", q.Args[0])
}

func TestBuildQueryRelationshipFilterUsesJoinAlias(t *testing.T) {
	q, err := BuildQuery(Options{
		Table:   builtUserTable(t),
		Filters: map[string][]string{"roles": {"admin"}},
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "rel_roles.name = $1")
}

func TestBuildQueryMultiselectUsesAny(t *testing.T) {
	q, err := BuildQuery(Options{
		Table:   builtUserTable(t),
		Filters: map[string][]string{"teams": {"core", "", "infra"}},
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "rel_team.name = ANY($1)")
	assert.Equal(t, pq.Array([]string{"core", "infra"}), q.Args[0])
}

func TestBuildQueryBooleanFilterSemantics(t *testing.T) {
	table := builtUserTable(t)

	// Absent and empty mean "no filter", never "false".
	for _, filters := range []map[string][]string{
		nil,
		{"active": {}},
		{"active": {""}},
		{"active": {"maybe"}},
	} {
		q, err := BuildQuery(Options{Table: table, Filters: filters})
		require.NoError(t, err)
		assert.NotContains(t, q.SQL, "u.active =")
	}

	q, err := BuildQuery(Options{Table: table, Filters: map[string][]string{"active": {"true"}}})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "u.active = $1")
	assert.Equal(t, true, q.Args[0])

	q, err = BuildQuery(Options{Table: table, Filters: map[string][]string{"active": {"0"}}})
	require.NoError(t, err)
	assert.Equal(t, false, q.Args[0])
}

func TestBuildQueryDateRangeBounds(t *testing.T) {
	q, err := BuildQuery(Options{
		Table: builtUserTable(t),
		Filters: map[string][]string{
			"created_at_from": {"2026-01-01"},
			"created_at_to":   {"2026-01-31"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "u.created_at >= $1")
	assert.Contains(t, q.SQL, "u.created_at <= $2")

	q, err = BuildQuery(Options{
		Table:   builtUserTable(t),
		Filters: map[string][]string{"created_at_from": {"2026-01-01"}},
	})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "u.created_at >= $1")
	assert.NotContains(t, q.SQL, "<=")
}

func TestOrderClauseFallsBackSilently(t *testing.T) {
	table := builtUserTable(t)

	// Unknown key, unsortable column, and multi relation column all fall
	// back to primary key ascending without error.
	for _, sortBy := range []string{"nope", "email", "roles", ""} {
		q, err := BuildQuery(Options{Table: table, SortBy: sortBy, SortDir: "desc"})
		require.NoError(t, err)
		assert.Contains(t, q.SQL, "ORDER BY u.id ASC")
	}

	q, err := BuildQuery(Options{Table: table, SortBy: "name", SortDir: "desc"})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "ORDER BY u.name DESC")

	q, err = BuildQuery(Options{Table: table, SortBy: "team", SortDir: "asc"})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "ORDER BY rel_team.name ASC")
}

func TestBuildQueryPaginationIsBound(t *testing.T) {
	q, err := BuildQuery(Options{Table: builtUserTable(t), Page: 3, PerPage: 25})
	require.NoError(t, err)
	assert.Contains(t, q.SQL, "LIMIT $1 OFFSET $2")
	assert.Equal(t, 25, q.Args[len(q.Args)-2])
	assert.Equal(t, 50, q.Args[len(q.Args)-1])
}

func TestBuildQueryDefaultsPageAndPerPage(t *testing.T) {
	q, err := BuildQuery(Options{Table: builtUserTable(t)})
	require.NoError(t, err)
	assert.Equal(t, 10, q.Args[len(q.Args)-2])
	assert.Equal(t, 0, q.Args[len(q.Args)-1])
}

func TestBuildCountQueryMatchesConstraints(t *testing.T) {
	opts := Options{
		Table:   builtUserTable(t),
		Search:  "ada",
		Filters: map[string][]string{"active": {"true"}},
		SortBy:  "name",
		Page:    4,
		PerPage: 50,
	}
	cq, err := BuildCountQuery(opts)
	require.NoError(t, err)
	assert.Contains(t, cq.SQL, "COUNT(DISTINCT u.id)")
	assert.Contains(t, cq.SQL, "ILIKE")
	assert.Contains(t, cq.SQL, "u.active =")
	assert.NotContains(t, cq.SQL, "ORDER BY")
	assert.NotContains(t, cq.SQL, "LIMIT")
}

func TestBuildCountQuerySingleRelationUsesPlainCount(t *testing.T) {
	table := NewTable("teams", "teams", "id").
		AddColumn(NewColumn("name", "Name", TypeText))
	require.NoError(t, table.Build(testRegistry(t)))
	cq, err := BuildCountQuery(Options{Table: table})
	require.NoError(t, err)
	assert.Contains(t, cq.SQL, "SELECT COUNT(*)")
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
