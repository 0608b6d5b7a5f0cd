package datatable

import (
	"fmt"
	"strings"
)

// Renderer turns cell or control content plus options into a fragment.
type Renderer func(content interface{}, opts map[string]string) (string, error)

// Registry maps type tags to renderers. Registration is a startup concern;
// duplicate tags are configuration errors, never silent overwrites.
type Registry struct {
	components map[string]Renderer
}

func NewRegistry() *Registry {
	return &Registry{components: map[string]Renderer{}}
}

func (r *Registry) Register(tag string, renderer Renderer) error {
	if _, exists := r.components[tag]; exists {
		return fmt.Errorf("component %q already registered", tag)
	}
	r.components[tag] = renderer
	return nil
}

func (r *Registry) HasComponent(tag string) bool {
	_, ok := r.components[tag]
	return ok
}

// GetComponent resolves a tag. Unregistered tags are a reportable error:
// a column declared with a missing type must not render as nothing.
func (r *Registry) GetComponent(tag string) (Renderer, error) {
	renderer, ok := r.components[tag]
	if !ok {
		return nil, fmt.Errorf("component %q is not registered", tag)
	}
	return renderer, nil
}

// Render dispatches content to the tag's renderer. List content renders
// item by item and joins the fragments, so a badge list produces one badge
// per entry rather than one stringified blob.
func (r *Registry) Render(tag string, content interface{}, opts map[string]string) (string, error) {
	renderer, err := r.GetComponent(tag)
	if err != nil {
		return "", err
	}
	items, isList := asList(content)
	if !isList {
		return renderer(content, opts)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		frag, err := renderer(item, opts)
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	return strings.Join(parts, " "), nil
}

// RenderNamed is the generic "render arbitrary named component" entry
// point. Unlike GetComponent, an unresolved name falls back to returning
// the raw content unchanged.
func (r *Registry) RenderNamed(name string, content interface{}, opts map[string]string) string {
	if !r.HasComponent(name) {
		return fmt.Sprint(content)
	}
	out, err := r.Render(name, content, opts)
	if err != nil {
		return fmt.Sprint(content)
	}
	return out
}

// ValidateComplete checks that every tag of a closed enumeration has a
// renderer, turning a missing handler into a startup error.
func (r *Registry) ValidateComplete(tags []string) error {
	var missing []string
	for _, tag := range tags {
		if !r.HasComponent(tag) {
			missing = append(missing, tag)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("registry is missing renderers for: %s", strings.Join(missing, ", "))
	}
	return nil
}

func asList(content interface{}) ([]interface{}, bool) {
	switch v := content.(type) {
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []CellOption:
		out := make([]interface{}, len(v))
		for i, o := range v {
			out[i] = o.Label
		}
		return out, true
	default:
		return nil, false
	}
}

func columnTags() []string {
	tags := make([]string, len(AllColumnTypes))
	for i, t := range AllColumnTypes {
		tags[i] = string(t)
	}
	return tags
}

func filterTags() []string {
	tags := make([]string, len(AllFilterTypes))
	for i, t := range AllFilterTypes {
		tags[i] = string(t)
	}
	return tags
}
