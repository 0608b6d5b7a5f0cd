package datatable

import (
	"fmt"
	"html"
)

// DefaultColumnRegistry builds the renderer registry for every column type.
// main validates it against AllColumnTypes so a new enum member without a
// renderer fails at startup.
func DefaultColumnRegistry() (*Registry, error) {
	r := NewRegistry()
	renderers := map[ColumnType]Renderer{
		TypeText:     renderText,
		TypeBadge:    renderBadge,
		TypeBoolean:  renderBoolean,
		TypeDate:     renderText,
		TypeDatetime: renderText,
		TypeCurrency: renderText,
		TypeNumber:   renderText,
		TypeLink:     renderLink,
		TypeAvatar:   renderAvatar,
		TypeSafeHTML: renderSafeHTML,
	}
	for tag, fn := range renderers {
		if err := r.Register(string(tag), fn); err != nil {
			return nil, err
		}
	}
	if err := r.ValidateComplete(columnTags()); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultFilterRegistry builds the control registry for every filter type.
func DefaultFilterRegistry() (*Registry, error) {
	r := NewRegistry()
	renderers := map[FilterType]Renderer{
		FilterSelect:       renderSelectControl,
		FilterMultiselect:  renderMultiselectControl,
		FilterBoolean:      renderBooleanControl,
		FilterDateRange:    renderDateRangeControl,
		FilterRelationship: renderSelectControl,
	}
	for tag, fn := range renderers {
		if err := r.Register(string(tag), fn); err != nil {
			return nil, err
		}
	}
	if err := r.ValidateComplete(filterTags()); err != nil {
		return nil, err
	}
	return r, nil
}

func renderText(content interface{}, _ map[string]string) (string, error) {
	return html.EscapeString(fmt.Sprint(content)), nil
}

func renderBadge(content interface{}, opts map[string]string) (string, error) {
	color := opts[OptColor]
	if color == "" {
		color = "neutral"
	}
	return `<span class="badge badge-` + html.EscapeString(color) + `">` +
		html.EscapeString(fmt.Sprint(content)) + `</span>`, nil
}

func renderBoolean(content interface{}, _ map[string]string) (string, error) {
	if toBool(content) {
		return `<span class="bool bool-yes">&#10003;</span>`, nil
	}
	return `<span class="bool bool-no">&#10007;</span>`, nil
}

func renderLink(content interface{}, opts map[string]string) (string, error) {
	value := fmt.Sprint(content)
	href := opts[OptLinkBase] + value
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(value) + `</a>`, nil
}

func renderAvatar(content interface{}, _ map[string]string) (string, error) {
	return `<img class="avatar" src="` + html.EscapeString(fmt.Sprint(content)) + `" alt="">`, nil
}

// renderSafeHTML trusts the content; the column type exists precisely for
// fragments sanitized upstream.
func renderSafeHTML(content interface{}, _ map[string]string) (string, error) {
	return fmt.Sprint(content), nil
}

func renderSelectControl(content interface{}, opts map[string]string) (string, error) {
	name := html.EscapeString(opts["name"])
	out := `<select name="` + name + `"><option value=""></option>`
	for _, o := range optionList(content) {
		out += `<option value="` + html.EscapeString(o.Value) + `">` + html.EscapeString(o.Label) + `</option>`
	}
	return out + `</select>`, nil
}

func renderMultiselectControl(content interface{}, opts map[string]string) (string, error) {
	name := html.EscapeString(opts["name"])
	out := `<select multiple name="` + name + `">`
	for _, o := range optionList(content) {
		out += `<option value="` + html.EscapeString(o.Value) + `">` + html.EscapeString(o.Label) + `</option>`
	}
	return out + `</select>`, nil
}

func renderBooleanControl(_ interface{}, opts map[string]string) (string, error) {
	name := html.EscapeString(opts["name"])
	return `<select name="` + name + `"><option value=""></option>` +
		`<option value="true">Yes</option><option value="false">No</option></select>`, nil
}

func renderDateRangeControl(_ interface{}, opts map[string]string) (string, error) {
	name := html.EscapeString(opts["name"])
	return `<input type="date" name="` + name + `_from"> <input type="date" name="` + name + `_to">`, nil
}

func optionList(content interface{}) []FilterOption {
	opts, _ := content.([]FilterOption)
	return opts
}
