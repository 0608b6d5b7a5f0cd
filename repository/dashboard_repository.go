package repository

import (
	"database/sql"
	"time"
)

// DashboardRepository runs the aggregation queries behind the stat tiles
// and charts. It only produces numbers; payload construction happens in
// the handler after these calls return.
type DashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) CountUsers() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_deleted = FALSE`).Scan(&n)
	return n, err
}

func (r *DashboardRepository) CountTeams() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM teams WHERE is_deleted = FALSE`).Scan(&n)
	return n, err
}

// CountSignupsBetween counts users created in [from, to).
func (r *DashboardRepository) CountSignupsBetween(from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM users
		WHERE is_deleted = FALSE AND created_at >= $1 AND created_at < $2
	`, from, to).Scan(&n)
	return n, err
}

// SignupsPerDay returns one bucket per day over the trailing window,
// zero-filled for days without signups.
func (r *DashboardRepository) SignupsPerDay(days int) ([]string, []float64, error) {
	rows, err := r.db.Query(`
		SELECT DATE(created_at), COUNT(*)
		FROM users
		WHERE is_deleted = FALSE AND created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY DATE(created_at)
	`, days)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	counts := map[string]float64{}
	for rows.Next() {
		var day time.Time
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, nil, err
		}
		counts[day.Format("2006-01-02")] = float64(n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	labels := make([]string, 0, days)
	data := make([]float64, 0, days)
	start := time.Now().AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		labels = append(labels, day)
		data = append(data, counts[day])
	}
	return labels, data, nil
}
