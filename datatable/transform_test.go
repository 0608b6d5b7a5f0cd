package datatable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transformTable(t *testing.T) *Table {
	t.Helper()
	table := NewTable("orders", "orders", "id").
		BaseAlias("o").
		AddRelation(Relation{
			Path:          "tags",
			Table:         "tags",
			RelatedColumn: "id",
			Multi:         true,
			PivotTable:    "order_tag",
			PivotLocal:    "order_id",
			PivotRelated:  "tag_id",
		}).
		AddColumn(NewColumn("reference", "Reference", TypeText)).
		AddColumn(NewColumn("placed_at", "Placed", TypeDate)).
		AddColumn(NewColumn("updated_at", "Updated", TypeDatetime)).
		AddColumn(NewColumn("total", "Total", TypeCurrency)).
		AddColumn(NewColumn("quantity", "Quantity", TypeNumber)).
		AddColumn(NewColumn("paid", "Paid", TypeBoolean)).
		AddColumn(NewColumn("tags", "Tags", TypeBadge).Relationship("tags", "name"))
	require.NoError(t, table.Build(testRegistry(t)))
	return table
}

func TestTransformFormatsEachType(t *testing.T) {
	table := transformTable(t)
	placed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	rows := []map[string]interface{}{{
		"_id":        int64(7),
		"reference":  "ORD-1007",
		"placed_at":  placed,
		"updated_at": placed,
		"total":      "1234567.5",
		"quantity":   int64(42),
		"paid":       true,
		"tags":       "rush,gift",
	}}

	out := Transform(table, rows)
	require.Len(t, out, 1)
	row := out[0]

	assert.Equal(t, int64(7), row["_id"])
	assert.Equal(t, "ORD-1007", row["reference"])
	assert.Equal(t, "2026-03-14", row["placed_at"])
	assert.Equal(t, "2026-03-14 09:30", row["updated_at"])
	assert.Equal(t, "$1,234,567.50", row["total"])
	assert.Equal(t, "42", row["quantity"])
	assert.Equal(t, true, row["paid"])
	assert.Equal(t, []CellOption{
		{Value: "rush", Label: "rush"},
		{Value: "gift", Label: "gift"},
	}, row["tags"])
}

func TestTransformHonorsFormatOptions(t *testing.T) {
	table := NewTable("orders", "orders", "id").
		AddColumn(NewColumn("placed_at", "Placed", TypeDate).Option(OptFormat, "02.01.2006")).
		AddColumn(NewColumn("total", "Total", TypeCurrency).
			Option(OptDecimals, "0").
			Option(OptThousandSeparator, " ").
			Option(OptCurrencySymbol, "€")).
		AddColumn(NewColumn("ratio", "Ratio", TypeNumber).
			Option(OptDecimals, "3").
			Option(OptDecimalSeparator, ","))
	require.NoError(t, table.Build(testRegistry(t)))

	out := Transform(table, []map[string]interface{}{{
		"_id":       1,
		"placed_at": time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		"total":     "98765",
		"ratio":     0.5,
	}})
	require.Len(t, out, 1)
	assert.Equal(t, "14.03.2026", out[0]["placed_at"])
	assert.Equal(t, "€98 765", out[0]["total"])
	assert.Equal(t, "0,500", out[0]["ratio"])
}

func TestTransformNilStaysNil(t *testing.T) {
	table := transformTable(t)
	out := Transform(table, []map[string]interface{}{{"_id": 1}})
	require.Len(t, out, 1)
	assert.Nil(t, out[0]["total"])
	assert.Nil(t, out[0]["tags"])
}

func TestTransformNegativeCurrency(t *testing.T) {
	table := NewTable("orders", "orders", "id").
		AddColumn(NewColumn("total", "Total", TypeCurrency))
	require.NoError(t, table.Build(testRegistry(t)))
	out := Transform(table, []map[string]interface{}{{"_id": 1, "total": "-1500"}})
	assert.Equal(t, "-$1,500.00", out[0]["total"])
}

func TestFlattenListSkipsEmptyEntries(t *testing.T) {
	opts := flattenList("a,, b ,")
	assert.Equal(t, []CellOption{
		{Value: "a", Label: "a"},
		{Value: "b", Label: "b"},
	}, opts)
}
