package initializers

import (
	"database/sql"

	"atrium-api/globals"
)

// permissionCatalog is the full set of "resource.action" permissions the
// admin surface checks. Seeding keeps the catalog in the database so
// roles can be edited at runtime.
var permissionCatalog = []string{
	"users.read", "users.update", "users.delete", "users.restore",
	"teams.read", "teams.create", "teams.update", "teams.delete", "teams.restore", "teams.members",
	"roles.read", "roles.update",
	"email_templates.read", "email_templates.create", "email_templates.update", "email_templates.delete",
	"dashboard.read",
}

// adminPermissions is what the admin role gets out of the box. The
// super-admin role needs no grants; it short-circuits every check.
var adminPermissions = []string{
	"users.read", "users.update",
	"teams.read", "teams.create", "teams.update", "teams.members",
	"email_templates.read", "email_templates.update",
	"dashboard.read",
}

// InitDefaults runs once at startup: seeds the role hierarchy, the
// permission catalog, the stock email templates, and promotes the first
// registered user to super-admin if nobody holds the role yet.
func InitDefaults(db *sql.DB) error {
	superID, err := ensureRole(db, globals.RoleSuperAdmin)
	if err != nil {
		return err
	}
	adminID, err := ensureRole(db, globals.RoleAdmin)
	if err != nil {
		return err
	}
	memberID, err := ensureRole(db, globals.RoleMember)
	if err != nil {
		return err
	}
	globals.SuperAdminRoleID = superID
	globals.AdminRoleID = adminID
	globals.MemberRoleID = memberID

	for _, name := range permissionCatalog {
		if _, err := ensurePermission(db, name); err != nil {
			return err
		}
	}
	for _, name := range adminPermissions {
		if err := ensureGrant(db, adminID, name); err != nil {
			return err
		}
	}

	if err := ensureEmailTemplate(db, "verify-email", "Verify your email",
		"Verify your email address",
		"Hello {{name}},\n\nPlease confirm your email address by opening {{link}}.\n\nIf you did not create this account, ignore this message."); err != nil {
		return err
	}
	if err := ensureEmailTemplate(db, "team-invite", "Team invitation",
		"You were added to {{team}}",
		"Hello {{name}},\n\n{{inviter}} added you to the team {{team}}."); err != nil {
		return err
	}
	if err := ensureEmailTemplate(db, "welcome", "Welcome",
		"Welcome to {{app}}",
		"Hello {{name}},\n\nYour account is ready."); err != nil {
		return err
	}

	return ensureFirstSuperAdmin(db, superID)
}

func ensureRole(db *sql.DB, name string) (int, error) {
	var id int
	err := db.QueryRow("SELECT id FROM roles WHERE name = $1", name).Scan(&id)
	if err == sql.ErrNoRows {
		err = db.QueryRow("INSERT INTO roles (name) VALUES ($1) RETURNING id", name).Scan(&id)
		if err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	return id, nil
}

func ensurePermission(db *sql.DB, name string) (int, error) {
	var id int
	err := db.QueryRow("SELECT id FROM permissions WHERE name = $1", name).Scan(&id)
	if err == sql.ErrNoRows {
		err = db.QueryRow("INSERT INTO permissions (name) VALUES ($1) RETURNING id", name).Scan(&id)
		if err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}
	return id, nil
}

func ensureGrant(db *sql.DB, roleID int, permissionName string) error {
	_, err := db.Exec(`
		INSERT INTO permission_role (permission_id, role_id)
		SELECT p.id, $1 FROM permissions p WHERE p.name = $2
		ON CONFLICT DO NOTHING
	`, roleID, permissionName)
	return err
}

func ensureEmailTemplate(db *sql.DB, key, name, subject, body string) error {
	var id int
	err := db.QueryRow("SELECT id FROM email_templates WHERE key = $1", key).Scan(&id)
	if err == sql.ErrNoRows {
		_, err = db.Exec(`
			INSERT INTO email_templates (key, name, subject, body, created_at, modified_at)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
		`, key, name, subject, body)
		return err
	}
	return err
}

// ensureFirstSuperAdmin gives the earliest registered user the
// super-admin role when no user holds it. A fresh install therefore has
// an operator the moment the first account exists.
func ensureFirstSuperAdmin(db *sql.DB, superRoleID int) error {
	var holders int
	if err := db.QueryRow(`SELECT COUNT(*) FROM role_user WHERE role_id = $1`, superRoleID).Scan(&holders); err != nil {
		return err
	}
	if holders > 0 {
		return nil
	}
	var firstUserID int
	err := db.QueryRow(`SELECT id FROM users WHERE is_deleted = FALSE ORDER BY id LIMIT 1`).Scan(&firstUserID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO role_user (role_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, superRoleID, firstUserID)
	return err
}
