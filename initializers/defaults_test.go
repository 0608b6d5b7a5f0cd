package initializers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every "resource.action" the policy layer can consult must be seedable,
// otherwise the permission exists in code but can never be granted.
func TestPermissionCatalogCoversManagedActions(t *testing.T) {
	required := []string{
		"users.read", "users.update", "users.delete", "users.restore",
		"teams.read", "teams.update", "teams.delete", "teams.restore", "teams.members",
		"email_templates.read", "email_templates.create", "email_templates.update", "email_templates.delete",
		"roles.read", "roles.update",
		"dashboard.read",
	}
	catalog := map[string]bool{}
	for _, p := range permissionCatalog {
		catalog[p] = true
	}
	for _, p := range required {
		assert.True(t, catalog[p], p)
	}
}

func TestAdminPermissionsAreSubsetOfCatalog(t *testing.T) {
	catalog := map[string]bool{}
	for _, p := range permissionCatalog {
		catalog[p] = true
	}
	for _, p := range adminPermissions {
		assert.True(t, catalog[p], p)
	}
}
