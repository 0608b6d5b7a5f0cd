package repository

import (
	"database/sql"

	"atrium-api/models"
	"atrium-api/pkg/events"
)

// ChangeHook observes every persisted-notification mutation. It is wired
// once at startup to broadcast notification.changed to the owning user, so
// no call site has to remember to emit the event itself.
type ChangeHook func(userID, notificationID int, action string)

type NotificationsRepository struct {
	db       *sql.DB
	onChange ChangeHook
}

func NewNotificationsRepository(db *sql.DB) *NotificationsRepository {
	return &NotificationsRepository{db: db}
}

// SetChangeHook installs the mutation observer. Pass nil to disable.
func (r *NotificationsRepository) SetChangeHook(hook ChangeHook) {
	r.onChange = hook
}

func (r *NotificationsRepository) fire(userID, notificationID int, action string) {
	if r.onChange != nil {
		r.onChange(userID, notificationID, action)
	}
}

func (r *NotificationsRepository) Create(userID int, severity string, payload []byte) (int, error) {
	var id int
	err := r.db.QueryRow(`
		INSERT INTO notifications (user_id, severity, payload, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`, userID, severity, payload).Scan(&id)
	if err != nil {
		return 0, err
	}
	r.fire(userID, id, events.ActionCreated)
	return id, nil
}

// CreateForUsers writes one row per recipient. Implements notify.Store.
func (r *NotificationsRepository) CreateForUsers(userIDs []int, severity string, payload []byte) error {
	for _, userID := range userIDs {
		if _, err := r.Create(userID, severity, payload); err != nil {
			return err
		}
	}
	return nil
}

func (r *NotificationsRepository) GetByID(id int) (*models.Notification, error) {
	var n models.Notification
	var readAt sql.NullTime
	err := r.db.QueryRow(`
		SELECT id, user_id, severity, payload, is_read, read_at, is_deleted, created_at
		FROM notifications WHERE id = $1
	`, id).Scan(&n.ID, &n.UserID, &n.Severity, &n.Payload, &n.IsRead, &readAt, &n.IsDeleted, &n.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

// ListForUser returns up to limit notifications plus a hasMore flag,
// probed by fetching one extra row.
func (r *NotificationsRepository) ListForUser(userID, limit int) ([]models.Notification, bool, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, severity, payload, is_read, read_at, is_deleted, created_at
		FROM notifications
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit+1)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var items []models.Notification
	for rows.Next() {
		var n models.Notification
		var readAt sql.NullTime
		if err := rows.Scan(&n.ID, &n.UserID, &n.Severity, &n.Payload, &n.IsRead, &readAt, &n.IsDeleted, &n.CreatedAt); err != nil {
			return nil, false, err
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	return items, hasMore, nil
}

func (r *NotificationsRepository) MarkRead(userID int, ids []int) error {
	for _, id := range ids {
		res, err := r.db.Exec(`
			UPDATE notifications SET is_read = TRUE, read_at = NOW()
			WHERE id = $1 AND user_id = $2 AND is_read = FALSE
		`, id, userID)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected > 0 {
			r.fire(userID, id, events.ActionUpdated)
		}
	}
	return nil
}

func (r *NotificationsRepository) SetDeleted(id int, isDeleted bool) error {
	var userID int
	err := r.db.QueryRow(`
		UPDATE notifications SET is_deleted = $2
		WHERE id = $1
		RETURNING user_id
	`, id, isDeleted).Scan(&userID)
	if err != nil {
		return err
	}
	action := events.ActionDeleted
	if !isDeleted {
		action = events.ActionRestored
	}
	r.fire(userID, id, action)
	return nil
}

func (r *NotificationsRepository) ForceDelete(id int) error {
	var userID int
	err := r.db.QueryRow(`
		DELETE FROM notifications WHERE id = $1
		RETURNING user_id
	`, id).Scan(&userID)
	if err != nil {
		return err
	}
	r.fire(userID, id, events.ActionForceDeleted)
	return nil
}

// CountsBySeverity aggregates non-deleted notifications for the dashboard.
func (r *NotificationsRepository) CountsBySeverity() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT severity, COUNT(*) FROM notifications
		WHERE is_deleted = FALSE
		GROUP BY severity
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		counts[severity] = count
	}
	return counts, rows.Err()
}
