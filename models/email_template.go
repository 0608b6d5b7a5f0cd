package models

import (
	"strings"
	"time"
)

// EmailTemplate holds a named mail template. Subject and body may contain
// {{placeholder}} markers substituted at render time; unknown placeholders
// are left intact so a half-filled preview stays readable.
type EmailTemplate struct {
	ID         int       `json:"id"`
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	IsDeleted  bool      `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// Render substitutes {{placeholder}} markers in subject and body. Markers
// without a matching key stay as-is.
func (t *EmailTemplate) Render(data map[string]string) (subject, body string) {
	subject = t.Subject
	body = t.Body
	for key, value := range data {
		marker := "{{" + key + "}}"
		subject = strings.ReplaceAll(subject, marker, value)
		body = strings.ReplaceAll(body, marker, value)
	}
	return subject, body
}
