package repository

import (
	"testing"
	"time"

	"atrium-api/pkg/events"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookCall struct {
	userID         int
	notificationID int
	action         string
}

func notificationRows(ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "severity", "payload", "is_read", "read_at", "is_deleted", "created_at"})
	for _, id := range ids {
		rows.AddRow(id, 1, "info", []byte(`{"title":"t"}`), false, nil, false, time.Now())
	}
	return rows
}

func TestListForUserProbesHasMore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationsRepository(db)

	// Exactly limit+1 rows available: hasMore true, extra row trimmed.
	mock.ExpectQuery("SELECT id, user_id, severity").
		WithArgs(1, 4).
		WillReturnRows(notificationRows(10, 9, 8, 7))

	items, hasMore, err := repo.ListForUser(1, 3)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, items, 3)
	assert.Equal(t, 10, items[0].ID)

	// Fewer rows than the limit: hasMore false.
	mock.ExpectQuery("SELECT id, user_id, severity").
		WithArgs(1, 4).
		WillReturnRows(notificationRows(10, 9))

	items, hasMore, err = repo.ListForUser(1, 3)
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, items, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFiresChangeHook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationsRepository(db)

	var calls []hookCall
	repo.SetChangeHook(func(userID, notificationID int, action string) {
		calls = append(calls, hookCall{userID, notificationID, action})
	})

	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(7, "info", []byte(`{"title":"t"}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, err := repo.Create(7, "info", []byte(`{"title":"t"}`))
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, []hookCall{{7, 42, events.ActionCreated}}, calls)
}

func TestMarkReadFiresHookOnlyForAffectedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationsRepository(db)

	var calls []hookCall
	repo.SetChangeHook(func(userID, notificationID int, action string) {
		calls = append(calls, hookCall{userID, notificationID, action})
	})

	mock.ExpectExec("UPDATE notifications SET is_read").
		WithArgs(1, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second id already read or not owned: zero rows, no event.
	mock.ExpectExec("UPDATE notifications SET is_read").
		WithArgs(2, 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkRead(7, []int{1, 2}))
	assert.Equal(t, []hookCall{{7, 1, events.ActionUpdated}}, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetDeletedFiresDeleteAndRestore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationsRepository(db)

	var calls []hookCall
	repo.SetChangeHook(func(userID, notificationID int, action string) {
		calls = append(calls, hookCall{userID, notificationID, action})
	})

	mock.ExpectQuery("UPDATE notifications SET is_deleted").
		WithArgs(5, true).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))
	mock.ExpectQuery("UPDATE notifications SET is_deleted").
		WithArgs(5, false).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	require.NoError(t, repo.SetDeleted(5, true))
	require.NoError(t, repo.SetDeleted(5, false))
	assert.Equal(t, []hookCall{
		{7, 5, events.ActionDeleted},
		{7, 5, events.ActionRestored},
	}, calls)
}

func TestForceDeleteFiresHook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationsRepository(db)

	var calls []hookCall
	repo.SetChangeHook(func(userID, notificationID int, action string) {
		calls = append(calls, hookCall{userID, notificationID, action})
	})

	mock.ExpectQuery("DELETE FROM notifications").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(7))

	require.NoError(t, repo.ForceDelete(5))
	assert.Equal(t, []hookCall{{7, 5, events.ActionForceDeleted}}, calls)
}

func TestCreateForUsersWritesOneRowPerRecipient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewNotificationsRepository(db)

	var calls []hookCall
	repo.SetChangeHook(func(userID, notificationID int, action string) {
		calls = append(calls, hookCall{userID, notificationID, action})
	})

	payload := []byte(`{"title":"t"}`)
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(1, "info", payload).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(2, "info", payload).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))

	require.NoError(t, repo.CreateForUsers([]int{1, 2}, "info", payload))
	assert.Len(t, calls, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
