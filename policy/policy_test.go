package policy

import (
	"errors"
	"testing"

	"atrium-api/globals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	roles       map[int][]string
	permissions map[int][]string
	err         error
}

func (f *fakeChecker) UserHasRole(userID int, roleName string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.roles[userID] {
		if r == roleName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeChecker) UserHasPermission(userID int, permission string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, p := range f.permissions[userID] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func newAuthorizer() *Authorizer {
	return NewAuthorizer(&fakeChecker{
		roles: map[int][]string{
			1: {globals.RoleSuperAdmin},
			2: {globals.RoleAdmin},
		},
		permissions: map[int][]string{
			2: {"users.read", "users.update"},
		},
	})
}

func TestCanSuperAdminPassesEverything(t *testing.T) {
	a := newAuthorizer()
	for _, perm := range []string{"users.read", "users.delete", "made.up"} {
		ok, err := a.Can(1, perm)
		require.NoError(t, err)
		assert.True(t, ok, perm)
	}
}

func TestCanChecksPermissionAssignments(t *testing.T) {
	a := newAuthorizer()

	ok, err := a.Can(2, "users.read")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Can(2, "users.delete")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = a.Can(3, "users.read")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSelfUpdateAndDeleteAlwaysDenied(t *testing.T) {
	a := newAuthorizer()

	// Even the super-admin cannot update or delete their own record.
	for _, action := range []string{"update", "delete"} {
		ok, err := a.CanManageUser(1, 1, action)
		require.NoError(t, err)
		assert.False(t, ok, action)
	}

	// Restore of self is not covered by the self-protection rule.
	ok, err := a.CanManageUser(1, 1, "restore")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanManageUserOnOthers(t *testing.T) {
	a := newAuthorizer()

	ok, err := a.CanManageUser(1, 2, "delete")
	require.NoError(t, err)
	assert.True(t, ok, "super-admin manages others freely")

	ok, err = a.CanManageUser(2, 3, "update")
	require.NoError(t, err)
	assert.True(t, ok, "granted permission applies")

	ok, err = a.CanManageUser(2, 3, "delete")
	require.NoError(t, err)
	assert.False(t, ok, "missing permission denies")
}

func TestCanManageTeamOwnerShortCircuit(t *testing.T) {
	a := newAuthorizer()

	ok, err := a.CanManageTeam(3, 3, "update")
	require.NoError(t, err)
	assert.True(t, ok, "owners manage their own team")

	ok, err = a.CanManageTeam(3, 4, "update")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanReadNotificationOwnerOrSuperAdmin(t *testing.T) {
	a := newAuthorizer()

	ok, err := a.CanReadNotification(2, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.CanReadNotification(1, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.CanReadNotification(2, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckerErrorsPropagate(t *testing.T) {
	a := NewAuthorizer(&fakeChecker{err: errors.New("db down")})
	_, err := a.Can(1, "users.read")
	assert.Error(t, err)
}
