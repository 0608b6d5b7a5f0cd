package repository

import (
	"database/sql"

	"atrium-api/datatable"
	"atrium-api/models"
)

type RolesRepository struct {
	db *sql.DB
}

func NewRolesRepository(db *sql.DB) *RolesRepository {
	return &RolesRepository{db: db}
}

func (r *RolesRepository) GetRoleByName(name string) (*models.Role, error) {
	var role models.Role
	err := r.db.QueryRow(`
		SELECT id, name FROM roles WHERE name = $1
	`, name).Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RolesRepository) GetRoleByID(id int) (*models.Role, error) {
	var role models.Role
	err := r.db.QueryRow(`
		SELECT id, name FROM roles WHERE id = $1
	`, id).Scan(&role.ID, &role.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *RolesRepository) ListRoles() ([]models.Role, error) {
	rows, err := r.db.Query(`SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RolesRepository) ListPermissions() ([]models.Permission, error) {
	rows, err := r.db.Query(`SELECT id, name FROM permissions ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []models.Permission
	for rows.Next() {
		var p models.Permission
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *RolesRepository) AssignRoleToUser(userID, roleID int) error {
	_, err := r.db.Exec(`
		INSERT INTO role_user (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, roleID)
	return err
}

func (r *RolesRepository) RemoveRoleFromUser(userID, roleID int) error {
	_, err := r.db.Exec(`
		DELETE FROM role_user WHERE user_id = $1 AND role_id = $2
	`, userID, roleID)
	return err
}

func (r *RolesRepository) GrantPermissionToRole(roleID, permissionID int) error {
	_, err := r.db.Exec(`
		INSERT INTO permission_role (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, roleID, permissionID)
	return err
}

func (r *RolesRepository) RevokePermissionFromRole(roleID, permissionID int) error {
	_, err := r.db.Exec(`
		DELETE FROM permission_role WHERE role_id = $1 AND permission_id = $2
	`, roleID, permissionID)
	return err
}

func (r *RolesRepository) UserHasRole(userID int, roleName string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM role_user ru
			INNER JOIN roles ro ON ro.id = ru.role_id
			WHERE ru.user_id = $1 AND ro.name = $2
		)
	`, userID, roleName).Scan(&exists)
	return exists, err
}

func (r *RolesRepository) UserHasPermission(userID int, permission string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM role_user ru
			INNER JOIN permission_role pr ON pr.role_id = ru.role_id
			INNER JOIN permissions p ON p.id = pr.permission_id
			WHERE ru.user_id = $1 AND p.name = $2
		)
	`, userID, permission).Scan(&exists)
	return exists, err
}

// FilterOptions makes the repository usable as a datatable options
// provider for role filters, resolved at render time.
func (r *RolesRepository) FilterOptions() ([]datatable.FilterOption, error) {
	roles, err := r.ListRoles()
	if err != nil {
		return nil, err
	}
	opts := make([]datatable.FilterOption, 0, len(roles))
	for _, role := range roles {
		opts = append(opts, datatable.FilterOption{Value: role.Name, Label: role.Name})
	}
	return opts, nil
}
