package repository

import (
	"database/sql"
	"encoding/json"

	"atrium-api/models"
)

type SavedViewsRepository struct {
	db *sql.DB
}

func NewSavedViewsRepository(db *sql.DB) *SavedViewsRepository {
	return &SavedViewsRepository{db: db}
}

func (r *SavedViewsRepository) Create(userID int, table, name string, params json.RawMessage) (*models.SavedView, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO saved_views (user_id, table_name, name, params, is_deleted, created_at, modified_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
		RETURNING id
	`, userID, table, name, params).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *SavedViewsRepository) Update(id int, name *string, params *json.RawMessage) error {
	// Update only provided fields by coalescing to current values
	_, err := r.db.Exec(`
		UPDATE saved_views SET
			name = COALESCE($2, name),
			params = COALESCE($3, params),
			modified_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`, id, name, params)
	return err
}

func (r *SavedViewsRepository) SetDeleted(id int, isDeleted bool) error {
	_, err := r.db.Exec(`
		UPDATE saved_views SET is_deleted = $2, modified_at = NOW() WHERE id = $1
	`, id, isDeleted)
	return err
}

func (r *SavedViewsRepository) GetByID(id int) (*models.SavedView, error) {
	var v models.SavedView
	err := r.db.QueryRow(`
		SELECT id, user_id, table_name, name, params, is_deleted, created_at, modified_at
		FROM saved_views WHERE id = $1
	`, id).Scan(&v.ID, &v.UserID, &v.Table, &v.Name, &v.Params, &v.IsDeleted, &v.CreatedAt, &v.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *SavedViewsRepository) ListForUser(userID int, table string, page, pageSize int) ([]*models.SavedView, int, error) {
	offset := (page - 1) * pageSize
	rows, err := r.db.Query(`
		SELECT id, user_id, table_name, name, params, is_deleted, created_at, modified_at
		FROM saved_views
		WHERE user_id = $1 AND table_name = $2 AND is_deleted = FALSE
		ORDER BY id
		LIMIT $3 OFFSET $4
	`, userID, table, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*models.SavedView
	for rows.Next() {
		var v models.SavedView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Table, &v.Name, &v.Params, &v.IsDeleted, &v.CreatedAt, &v.ModifiedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.QueryRow(`
		SELECT COUNT(*) FROM saved_views
		WHERE user_id = $1 AND table_name = $2 AND is_deleted = FALSE
	`, userID, table).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
