package repository

import (
	"database/sql"

	"atrium-api/models"
)

type TeamsRepository struct {
	db *sql.DB
}

func NewTeamsRepository(db *sql.DB) *TeamsRepository {
	return &TeamsRepository{db: db}
}

func (r *TeamsRepository) CreateTeam(name string, ownerID, ownerRoleID int) (*models.Team, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRow(`
		INSERT INTO teams (name, owner_id, created_at, modified_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id
	`, name, ownerID).Scan(&id)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(`
		INSERT INTO team_user (team_id, user_id, role_id, joined_at)
		VALUES ($1, $2, $3, NOW())
	`, id, ownerID, ownerRoleID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetTeamByID(id)
}

func (r *TeamsRepository) GetTeamByID(id int) (*models.Team, error) {
	var t models.Team
	err := r.db.QueryRow(`
		SELECT id, name, owner_id, is_deleted, created_at, modified_at
		FROM teams WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.OwnerID, &t.IsDeleted, &t.CreatedAt, &t.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamsRepository) UpdateTeamName(id int, name string) error {
	_, err := r.db.Exec(`
		UPDATE teams SET name = $2, modified_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`, id, name)
	return err
}

func (r *TeamsRepository) SetTeamDeleted(id int, isDeleted bool) error {
	_, err := r.db.Exec(`
		UPDATE teams SET is_deleted = $2, modified_at = NOW() WHERE id = $1
	`, id, isDeleted)
	return err
}

func (r *TeamsRepository) AddMember(teamID, userID, roleID int) error {
	_, err := r.db.Exec(`
		INSERT INTO team_user (team_id, user_id, role_id, joined_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (team_id, user_id) DO UPDATE SET role_id = EXCLUDED.role_id
	`, teamID, userID, roleID)
	return err
}

func (r *TeamsRepository) RemoveMember(teamID, userID int) error {
	_, err := r.db.Exec(`
		DELETE FROM team_user WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	return err
}

func (r *TeamsRepository) SetMemberRole(teamID, userID, roleID int) error {
	_, err := r.db.Exec(`
		UPDATE team_user SET role_id = $3 WHERE team_id = $1 AND user_id = $2
	`, teamID, userID, roleID)
	return err
}

func (r *TeamsRepository) IsTeamMember(userID, teamID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM team_user WHERE user_id = $1 AND team_id = $2)
	`, userID, teamID).Scan(&exists)
	return exists, err
}

// TeamMemberIDs lists member user ids, the audience of team-targeted
// persisted notifications.
func (r *TeamsRepository) TeamMemberIDs(teamID int) ([]int, error) {
	rows, err := r.db.Query(`
		SELECT user_id FROM team_user WHERE team_id = $1 ORDER BY user_id
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TeamsRepository) GetMembersPaginated(teamID, offset, limit int) ([]models.TeamMember, int, error) {
	rows, err := r.db.Query(`
		SELECT tu.user_id, u.name, u.email, tu.role_id, ro.name, tu.joined_at
		FROM team_user tu
		INNER JOIN users u ON u.id = tu.user_id
		INNER JOIN roles ro ON ro.id = tu.role_id
		WHERE tu.team_id = $1 AND u.is_deleted = FALSE
		ORDER BY tu.joined_at
		LIMIT $2 OFFSET $3
	`, teamID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.RoleID, &m.RoleName, &m.JoinedAt); err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM team_user tu
		INNER JOIN users u ON u.id = tu.user_id
		WHERE tu.team_id = $1 AND u.is_deleted = FALSE
	`, teamID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *TeamsRepository) GetTeamsForUserPaginated(userID, offset, limit int) ([]*models.Team, int, error) {
	rows, err := r.db.Query(`
		SELECT t.id, t.name, t.owner_id, t.is_deleted, t.created_at, t.modified_at
		FROM teams t
		INNER JOIN team_user tu ON tu.team_id = t.id
		WHERE tu.user_id = $1 AND t.is_deleted = FALSE
		ORDER BY t.id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerID, &t.IsDeleted, &t.CreatedAt, &t.ModifiedAt); err != nil {
			return nil, 0, err
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM teams t
		INNER JOIN team_user tu ON tu.team_id = t.id
		WHERE tu.user_id = $1 AND t.is_deleted = FALSE
	`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return teams, total, nil
}
