package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	tpl := EmailTemplate{
		Subject: "Welcome {{name}}",
		Body:    "Hello {{name}}, your team is {{team}}.",
	}
	subject, body := tpl.Render(map[string]string{"name": "Ada", "team": "Core"})
	assert.Equal(t, "Welcome Ada", subject)
	assert.Equal(t, "Hello Ada, your team is Core.", body)
}

func TestRenderLeavesUnknownMarkersIntact(t *testing.T) {
	tpl := EmailTemplate{
		Subject: "{{greeting}} {{name}}",
		Body:    "{{missing}} stays",
	}
	subject, body := tpl.Render(map[string]string{"name": "Ada"})
	assert.Equal(t, "{{greeting}} Ada", subject)
	assert.Equal(t, "{{missing}} stays", body)
}

func TestRenderRepeatedMarkers(t *testing.T) {
	tpl := EmailTemplate{Body: "{{x}} and {{x}}"}
	_, body := tpl.Render(map[string]string{"x": "y"})
	assert.Equal(t, "y and y", body)
}

func TestAllowedThemeAndLocale(t *testing.T) {
	assert.True(t, IsAllowedTheme("dark"))
	assert.True(t, IsAllowedTheme("system"))
	assert.False(t, IsAllowedTheme("solarized"))

	assert.True(t, IsAllowedLocale("en"))
	assert.False(t, IsAllowedLocale("xx"))
}
