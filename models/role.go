package models

type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Permission is an entry of the permission catalog, named "resource.action"
// (for example "users.update" or "email-templates.delete").
type Permission struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
