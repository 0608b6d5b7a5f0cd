package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := DefaultColumnRegistry()
	require.NoError(t, err)
	return r
}

func baseUserTable() *Table {
	return NewTable("users", "users", "id").
		BaseAlias("u").
		AddRelation(Relation{
			Path:          "roles",
			Table:         "roles",
			RelatedColumn: "id",
			Multi:         true,
			PivotTable:    "role_user",
			PivotLocal:    "user_id",
			PivotRelated:  "role_id",
		}).
		AddRelation(Relation{
			Path:          "team",
			Table:         "teams",
			LocalColumn:   "team_id",
			RelatedColumn: "id",
		}).
		AddColumn(NewColumn("name", "Name", TypeText).Sortable().Searchable()).
		AddColumn(NewColumn("email", "Email", TypeText).Searchable()).
		AddColumn(NewColumn("active", "Active", TypeBoolean)).
		AddColumn(NewColumn("created_at", "Joined", TypeDate).Sortable()).
		AddColumn(NewColumn("team", "Team", TypeText).Relationship("team", "name").Sortable()).
		AddColumn(NewColumn("roles", "Roles", TypeBadge).Relationship("roles", "name"))
}

func TestBuildValidatesDuplicateColumnKeys(t *testing.T) {
	table := NewTable("users", "users", "id").
		AddColumn(NewColumn("name", "Name", TypeText)).
		AddColumn(NewColumn("name", "Name again", TypeText))
	err := table.Build(testRegistry(t))
	assert.ErrorContains(t, err, "duplicate column key")
}

func TestBuildValidatesUnregisteredRelation(t *testing.T) {
	table := NewTable("users", "users", "id").
		AddColumn(NewColumn("team", "Team", TypeText).Relationship("team", "name"))
	err := table.Build(testRegistry(t))
	assert.ErrorContains(t, err, "unregistered relation")
}

func TestBuildValidatesUnregisteredColumnType(t *testing.T) {
	empty := NewRegistry()
	table := NewTable("users", "users", "id").
		AddColumn(NewColumn("name", "Name", TypeText))
	err := table.Build(empty)
	assert.ErrorContains(t, err, "unregistered type")
}

func TestBuildValidatesFilterBinding(t *testing.T) {
	table := NewTable("users", "users", "id").
		AddColumn(NewColumn("name", "Name", TypeText)).
		AddFilter(NewFilter("missing", "Missing", FilterSelect))
	err := table.Build(testRegistry(t))
	assert.ErrorContains(t, err, "unknown column")
}

func TestBuildValidatesRelationshipFilterColumn(t *testing.T) {
	table := NewTable("users", "users", "id").
		AddColumn(NewColumn("name", "Name", TypeText)).
		AddFilter(NewFilter("name", "Name", FilterRelationship))
	err := table.Build(testRegistry(t))
	assert.ErrorContains(t, err, "non-relationship column")
}

func TestBuildValidatesDuplicateFilterKeys(t *testing.T) {
	table := NewTable("users", "users", "id").
		AddColumn(NewColumn("name", "Name", TypeText)).
		AddFilter(NewFilter("name", "Name", FilterSelect)).
		AddFilter(NewFilter("name", "Name again", FilterSelect))
	err := table.Build(testRegistry(t))
	assert.ErrorContains(t, err, "duplicate filter key")
}

func TestBuildSucceedsForValidDefinition(t *testing.T) {
	table := baseUserTable().
		AddFilter(NewFilter("roles", "Role", FilterRelationship)).
		AddFilter(NewFilter("active", "Active", FilterBoolean)).
		AddFilter(NewFilter("created_at", "Joined", FilterDateRange))
	require.NoError(t, table.Build(testRegistry(t)))
	assert.ErrorContains(t, table.Build(testRegistry(t)), "already built")
}

func TestRelationAliasIsStable(t *testing.T) {
	assert.Equal(t, "rel_roles", relationAlias("roles"))
	assert.Equal(t, "rel_team_owner", relationAlias("team.owner"))
	assert.Equal(t, relationAlias("a.b"), relationAlias("a.b"))
}
