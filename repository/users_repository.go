package repository

import (
	"database/sql"

	"atrium-api/models"

	"golang.org/x/crypto/bcrypt"
)

type UsersRepository struct {
	db *sql.DB
}

func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

const userColumns = `id, name, email, password_hash, avatar_path, theme, locale, email_verified_at, is_deleted, created_at, modified_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var avatar sql.NullString
	var verifiedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &avatar, &u.Theme, &u.Locale,
		&verifiedAt, &u.IsDeleted, &u.CreatedAt, &u.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if avatar.Valid {
		u.AvatarPath = avatar.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.EmailVerifiedAt = &t
	}
	return &u, nil
}

func (r *UsersRepository) CreateUser(name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	var id int
	err = r.db.QueryRow(`
		INSERT INTO users (name, email, password_hash, theme, locale, created_at, modified_at)
		VALUES ($1, $2, $3, 'system', 'en', NOW(), NOW())
		RETURNING id
	`, name, email, string(hash)).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(id)
}

func (r *UsersRepository) GetUserByID(id int) (*models.User, error) {
	return scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UsersRepository) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_deleted = FALSE`, email))
}

func (r *UsersRepository) UpdateUser(id int, name, email string) error {
	_, err := r.db.Exec(`
		UPDATE users SET name = $2, email = $3, modified_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`, id, name, email)
	return err
}

func (r *UsersRepository) SetUserDeleted(id int, isDeleted bool) error {
	_, err := r.db.Exec(`
		UPDATE users SET is_deleted = $2, modified_at = NOW() WHERE id = $1
	`, id, isDeleted)
	return err
}

// UpdatePreferences stores validated theme/locale values. Validation of
// the allowed sets happens in the handler before this call.
func (r *UsersRepository) UpdatePreferences(id int, theme, locale *string) error {
	_, err := r.db.Exec(`
		UPDATE users SET
			theme = COALESCE($2, theme),
			locale = COALESCE($3, locale),
			modified_at = NOW()
		WHERE id = $1
	`, id, theme, locale)
	return err
}

func (r *UsersRepository) SetAvatarPath(id int, path string) error {
	_, err := r.db.Exec(`
		UPDATE users SET avatar_path = $2, modified_at = NOW() WHERE id = $1
	`, id, path)
	return err
}

// SetVerificationTokenHash stores the sha256 of a fresh verification token.
func (r *UsersRepository) SetVerificationTokenHash(id int, tokenHash string) error {
	_, err := r.db.Exec(`
		UPDATE users SET verification_token_hash = $2, modified_at = NOW() WHERE id = $1
	`, id, tokenHash)
	return err
}

// VerifyEmailByTokenHash marks the matching user verified and clears the
// token. Returns nil without error when no user matches.
func (r *UsersRepository) VerifyEmailByTokenHash(tokenHash string) (*models.User, error) {
	var id int
	err := r.db.QueryRow(`
		UPDATE users SET email_verified_at = NOW(), verification_token_hash = NULL, modified_at = NOW()
		WHERE verification_token_hash = $1 AND email_verified_at IS NULL
		RETURNING id
	`, tokenHash).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(id)
}

// ActiveUserIDs lists every non-deleted user, the audience of global
// persisted notifications.
func (r *UsersRepository) ActiveUserIDs() ([]int, error) {
	rows, err := r.db.Query(`SELECT id FROM users WHERE is_deleted = FALSE ORDER BY id`)
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
