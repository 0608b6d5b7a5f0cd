package handlers

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atrium-api/pkg/notify"
	"atrium-api/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkStore struct {
	calls [][]int
}

func (s *sinkStore) CreateForUsers(userIDs []int, severity string, payload []byte) error {
	s.calls = append(s.calls, userIDs)
	return nil
}

type sinkBroadcaster struct {
	channels []string
}

func (s *sinkBroadcaster) Broadcast(channel, event string, data interface{}) error {
	s.channels = append(s.channels, channel)
	return nil
}

type sinkRecipients struct{}

func (sinkRecipients) TeamMemberIDs(int) ([]int, error) { return nil, nil }
func (sinkRecipients) ActiveUserIDs() ([]int, error)    { return nil, nil }

func preferencesRouter(h *PreferencesHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PATCH("/me/preferences", func(c *gin.Context) { c.Set("userId", 1) }, h.UpdatePreferences)
	r.GET("/verify-email/:token", h.VerifyEmail)
	return r
}

func userRows(id int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "avatar_path", "theme", "locale",
		"email_verified_at", "is_deleted", "created_at", "modified_at",
	}).AddRow(id, "Ada", "ada@example.com", "x", nil, "system", "en", now, false, now, now)
}

func TestUpdatePreferencesRejectsInvalidValues(t *testing.T) {
	// Validation fails before storage is touched, so no repository is needed.
	r := preferencesRouter(NewPreferencesHandler(nil, nil))

	for _, body := range []string{
		`{"theme":"solarized"}`,
		`{"locale":"xx"}`,
		`{}`,
		`{"theme":`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/me/preferences", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestUpdatePreferencesStoresAllowedValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	r := preferencesRouter(NewPreferencesHandler(repository.NewUsersRepository(db), nil))

	mock.ExpectExec("UPDATE users SET").
		WithArgs(1, "dark", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, name, email").
		WithArgs(1).
		WillReturnRows(userRows(1))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/me/preferences", bytes.NewBufferString(`{"theme":"dark"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailRedirectsToFixedDestination(t *testing.T) {
	t.Setenv("VERIFY_REDIRECT_URL", "/signin")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := &sinkStore{}
	broadcaster := &sinkBroadcaster{}
	notifier := notify.New(store, sinkRecipients{}, broadcaster)
	r := preferencesRouter(NewPreferencesHandler(repository.NewUsersRepository(db), notifier))

	// Token matches: user 7 is verified, outcome lands as a persisted toast.
	mock.ExpectQuery("UPDATE users SET email_verified_at").
		WithArgs(HashToken("good")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery("SELECT id, name, email").
		WithArgs(7).
		WillReturnRows(userRows(7))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify-email/good", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	assert.Equal(t, [][]int{{7}}, store.calls)
	assert.Equal(t, []string{"private-notifications.user.7"}, broadcaster.channels)

	// Token does not match: same destination, nothing flashed without a session.
	mock.ExpectQuery("UPDATE users SET email_verified_at").
		WithArgs(HashToken("bad")).
		WillReturnError(sql.ErrNoRows)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify-email/bad", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))
	assert.Len(t, store.calls, 1)
	assert.Len(t, broadcaster.channels, 1)
}

func TestVerifyEmailFailureFlashesSessionToast(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := &sinkStore{}
	broadcaster := &sinkBroadcaster{}
	notifier := notify.New(store, sinkRecipients{}, broadcaster)
	r := preferencesRouter(NewPreferencesHandler(repository.NewUsersRepository(db), notifier))

	mock.ExpectQuery("UPDATE users SET email_verified_at").
		WithArgs(HashToken("bad")).
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify-email/bad?sessionId=s1", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Empty(t, store.calls, "session toasts are never persisted")
	assert.Equal(t, []string{"public-notifications.session.s1"}, broadcaster.channels)
}
