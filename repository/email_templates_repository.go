package repository

import (
	"database/sql"

	"atrium-api/models"
)

type EmailTemplatesRepository struct {
	db *sql.DB
}

func NewEmailTemplatesRepository(db *sql.DB) *EmailTemplatesRepository {
	return &EmailTemplatesRepository{db: db}
}

func (r *EmailTemplatesRepository) Create(key, name, subject, body string) (*models.EmailTemplate, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO email_templates (key, name, subject, body, created_at, modified_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`, key, name, subject, body).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *EmailTemplatesRepository) GetByID(id int) (*models.EmailTemplate, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, key, name, subject, body, is_deleted, created_at, modified_at
		FROM email_templates WHERE id = $1
	`, id))
}

func (r *EmailTemplatesRepository) GetByKey(key string) (*models.EmailTemplate, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, key, name, subject, body, is_deleted, created_at, modified_at
		FROM email_templates WHERE key = $1 AND is_deleted = FALSE
	`, key))
}

func (r *EmailTemplatesRepository) scanOne(row *sql.Row) (*models.EmailTemplate, error) {
	var t models.EmailTemplate
	err := row.Scan(&t.ID, &t.Key, &t.Name, &t.Subject, &t.Body, &t.IsDeleted, &t.CreatedAt, &t.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *EmailTemplatesRepository) Update(id int, name, subject, body *string) error {
	_, err := r.db.Exec(`
		UPDATE email_templates SET
			name = COALESCE($2, name),
			subject = COALESCE($3, subject),
			body = COALESCE($4, body),
			modified_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`, id, name, subject, body)
	return err
}

func (r *EmailTemplatesRepository) SetDeleted(id int, isDeleted bool) error {
	_, err := r.db.Exec(`
		UPDATE email_templates SET is_deleted = $2, modified_at = NOW() WHERE id = $1
	`, id, isDeleted)
	return err
}

func (r *EmailTemplatesRepository) List(offset, limit int) ([]*models.EmailTemplate, int, error) {
	rows, err := r.db.Query(`
		SELECT id, key, name, subject, body, is_deleted, created_at, modified_at
		FROM email_templates
		WHERE is_deleted = FALSE
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*models.EmailTemplate
	for rows.Next() {
		var t models.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Key, &t.Name, &t.Subject, &t.Body, &t.IsDeleted, &t.CreatedAt, &t.ModifiedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = r.db.QueryRow(`SELECT COUNT(*) FROM email_templates WHERE is_deleted = FALSE`).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
