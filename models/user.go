package models

import "time"

type User struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	AvatarPath      string     `json:"avatarPath,omitempty"`
	Theme           string     `json:"theme"`
	Locale          string     `json:"locale"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	IsDeleted       bool       `json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	ModifiedAt      time.Time  `json:"modifiedAt"`
}

// Allowed preference values. Anything else is a validation error.
var (
	AllowedThemes  = []string{"light", "dark", "system"}
	AllowedLocales = []string{"en", "fr", "de", "es"}
)

func IsAllowedTheme(v string) bool  { return contains(AllowedThemes, v) }
func IsAllowedLocale(v string) bool { return contains(AllowedLocales, v) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
