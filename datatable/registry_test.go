package datatable

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	noop := func(content interface{}, _ map[string]string) (string, error) {
		return fmt.Sprint(content), nil
	}
	require.NoError(t, r.Register("text", noop))
	assert.ErrorContains(t, r.Register("text", noop), "already registered")
}

func TestGetComponentUnknownTagIsError(t *testing.T) {
	r := NewRegistry()
	_, err := r.GetComponent("badge")
	assert.ErrorContains(t, err, "not registered")
}

func TestValidateCompleteReportsMissingTags(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("text", func(content interface{}, _ map[string]string) (string, error) {
		return fmt.Sprint(content), nil
	})
	err := r.ValidateComplete([]string{"text", "badge", "boolean"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "badge")
	assert.Contains(t, err.Error(), "boolean")

	assert.NoError(t, r.ValidateComplete([]string{"text"}))
}

func TestDefaultRegistriesAreComplete(t *testing.T) {
	cols, err := DefaultColumnRegistry()
	require.NoError(t, err)
	assert.NoError(t, cols.ValidateComplete(columnTags()))

	filters, err := DefaultFilterRegistry()
	require.NoError(t, err)
	assert.NoError(t, filters.ValidateComplete(filterTags()))
}

func TestRenderListContentRendersEachItem(t *testing.T) {
	r, err := DefaultColumnRegistry()
	require.NoError(t, err)

	out, err := r.Render("badge", []CellOption{
		{Value: "admin", Label: "admin"},
		{Value: "member", Label: "member"},
	}, map[string]string{OptColor: "primary"})
	require.NoError(t, err)
	assert.Equal(t,
		`<span class="badge badge-primary">admin</span> <span class="badge badge-primary">member</span>`,
		out)
}

func TestRenderEscapesContent(t *testing.T) {
	r, err := DefaultColumnRegistry()
	require.NoError(t, err)

	out, err := r.Render("text", `<script>alert("x")</script>`, nil)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")

	out, err = r.Render("safehtml", `<b>bold</b>`, nil)
	require.NoError(t, err)
	assert.Equal(t, "<b>bold</b>", out)
}

func TestRenderNamedFallsBackToRawContent(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "42", r.RenderNamed("unknown", 42, nil))

	_ = r.Register("upper", func(content interface{}, _ map[string]string) (string, error) {
		return "UP:" + fmt.Sprint(content), nil
	})
	assert.Equal(t, "UP:x", r.RenderNamed("upper", "x", nil))
}

func TestBooleanRenderer(t *testing.T) {
	r, err := DefaultColumnRegistry()
	require.NoError(t, err)

	yes, err := r.Render("boolean", true, nil)
	require.NoError(t, err)
	assert.Contains(t, yes, "bool-yes")

	no, err := r.Render("boolean", false, nil)
	require.NoError(t, err)
	assert.Contains(t, no, "bool-no")
}

func TestFilterControlRenderers(t *testing.T) {
	r, err := DefaultFilterRegistry()
	require.NoError(t, err)

	options := []FilterOption{{Value: "admin", Label: "Admin"}}
	sel, err := r.Render("select", options, map[string]string{"name": "role"})
	require.NoError(t, err)
	assert.Contains(t, sel, `name="role"`)
	assert.Contains(t, sel, `<option value="admin">Admin</option>`)

	dr, err := r.Render("daterange", nil, map[string]string{"name": "created_at"})
	require.NoError(t, err)
	assert.Contains(t, dr, `name="created_at_from"`)
	assert.Contains(t, dr, `name="created_at_to"`)
}
