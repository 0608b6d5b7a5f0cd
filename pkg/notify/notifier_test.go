package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"atrium-api/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls []storeCall
	err   error
}

type storeCall struct {
	userIDs  []int
	severity string
	payload  []byte
}

func (f *fakeStore) CreateForUsers(userIDs []int, severity string, payload []byte) error {
	f.calls = append(f.calls, storeCall{userIDs: userIDs, severity: severity, payload: payload})
	return f.err
}

type fakeRecipients struct {
	teamMembers map[int][]int
	activeUsers []int
}

func (f *fakeRecipients) TeamMemberIDs(teamID int) ([]int, error) {
	return f.teamMembers[teamID], nil
}

func (f *fakeRecipients) ActiveUserIDs() ([]int, error) {
	return f.activeUsers, nil
}

type fakeBroadcaster struct {
	channels []string
	eventNames []string
	data     []interface{}
	err      error
}

func (f *fakeBroadcaster) Broadcast(channel, event string, data interface{}) error {
	f.channels = append(f.channels, channel)
	f.eventNames = append(f.eventNames, event)
	f.data = append(f.data, data)
	return f.err
}

func newTestNotifier() (*Notifier, *fakeStore, *fakeRecipients, *fakeBroadcaster) {
	store := &fakeStore{}
	recipients := &fakeRecipients{
		teamMembers: map[int][]int{5: {1, 2, 3}},
		activeUsers: []int{1, 2, 3, 4},
	}
	broadcaster := &fakeBroadcaster{}
	return New(store, recipients, broadcaster), store, recipients, broadcaster
}

func TestSendUserToastOnly(t *testing.T) {
	n, store, _, broadcaster := newTestNotifier()

	err := n.Success("Saved").Content("Your changes were saved.").ToUser(9).Send()
	require.NoError(t, err)

	assert.Empty(t, store.calls)
	require.Len(t, broadcaster.channels, 1)
	assert.Equal(t, "private-notifications.user.9", broadcaster.channels[0])
	assert.Equal(t, events.ToastReceived, broadcaster.eventNames[0])
}

func TestSendUserPersisted(t *testing.T) {
	n, store, _, broadcaster := newTestNotifier()

	err := n.Warning("Disk almost full").ToUser(9).Persist().Send()
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, []int{9}, store.calls[0].userIDs)
	assert.Equal(t, "warning", store.calls[0].severity)
	require.Len(t, broadcaster.channels, 1)
}

func TestSendTeamPersistWritesPerMember(t *testing.T) {
	n, store, _, broadcaster := newTestNotifier()

	err := n.Info("Release shipped").ToTeam(5).Persist().Send()
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, []int{1, 2, 3}, store.calls[0].userIDs)
	assert.Equal(t, "private-notifications.team.5", broadcaster.channels[0])
}

func TestSendGlobalPersistTargetsActiveUsers(t *testing.T) {
	n, store, _, broadcaster := newTestNotifier()

	err := n.Neutral("Maintenance tonight").Global().Persist().Send()
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, []int{1, 2, 3, 4}, store.calls[0].userIDs)
	assert.Equal(t, "private-notifications.global", broadcaster.channels[0])
}

func TestSendSessionPersistIsError(t *testing.T) {
	n, store, _, broadcaster := newTestNotifier()

	err := n.Error("Login failed").ToSession("abc123").Persist().Send()
	assert.ErrorIs(t, err, ErrSessionPersist)
	assert.Empty(t, store.calls)
	assert.Empty(t, broadcaster.channels)
}

func TestSendSessionToast(t *testing.T) {
	n, _, _, broadcaster := newTestNotifier()

	err := n.Error("Login failed").ToSession("abc123").Send()
	require.NoError(t, err)
	assert.Equal(t, "public-notifications.session.abc123", broadcaster.channels[0])
}

func TestSendWithoutTargetIsError(t *testing.T) {
	n, _, _, _ := newTestNotifier()
	assert.ErrorIs(t, n.Info("Orphan").Send(), ErrNoTarget)
}

func TestSendStoreFailureStopsBroadcast(t *testing.T) {
	n, store, _, broadcaster := newTestNotifier()
	store.err = errors.New("disk full")

	err := n.Info("Doomed").ToUser(1).Persist().Send()
	assert.ErrorContains(t, err, "persist notification")
	assert.Empty(t, broadcaster.channels, "broadcast must not run after a failed persist")
}

func TestSendBroadcastFailureSurfaces(t *testing.T) {
	n, _, _, broadcaster := newTestNotifier()
	broadcaster.err = errors.New("hub down")

	err := n.Info("Doomed").ToUser(1).Send()
	assert.ErrorContains(t, err, "broadcast notification")
}

func TestSinkSerializationsDiffer(t *testing.T) {
	p := Payload{
		Title:    "Hello",
		Content:  "World",
		Severity: SeverityInfo,
		Icon:     "bell",
		Link:     "/inbox",
	}

	record, err := p.DatabaseRecord()
	require.NoError(t, err)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(record, &stored))
	assert.NotContains(t, stored, "severity", "severity lives in its own column, not the stored payload")
	assert.Equal(t, "Hello", stored["title"])

	toastJSON, err := json.Marshal(p.ToastData())
	require.NoError(t, err)
	var toast map[string]interface{}
	require.NoError(t, json.Unmarshal(toastJSON, &toast))
	assert.Equal(t, "info", toast["severity"])
	assert.Contains(t, toast, "createdAt")
}
