package policy

import "atrium-api/globals"

// PermissionChecker answers role and permission questions for a user.
// The roles repository implements it.
type PermissionChecker interface {
	UserHasRole(userID int, roleName string) (bool, error)
	UserHasPermission(userID int, permission string) (bool, error)
}

// Authorizer makes every authorization decision for the admin surface.
// Decision order: self-protection rule, super-admin short-circuit, then
// permission lookup. Denial is a boolean outcome, not an error.
type Authorizer struct {
	perms PermissionChecker
}

func NewAuthorizer(perms PermissionChecker) *Authorizer {
	return &Authorizer{perms: perms}
}

// Can checks a plain "resource.action" permission. Holders of the
// super-admin role pass every check regardless of assignments.
func (a *Authorizer) Can(actorID int, permission string) (bool, error) {
	super, err := a.perms.UserHasRole(actorID, globals.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	if super {
		return true, nil
	}
	return a.perms.UserHasPermission(actorID, permission)
}

// CanManageUser decides update/delete/restore on a user record. Acting on
// your own record with update or delete is always denied, even for
// super-admins; everything else follows Can.
func (a *Authorizer) CanManageUser(actorID, targetID int, action string) (bool, error) {
	if actorID == targetID && (action == "update" || action == "delete") {
		return false, nil
	}
	return a.Can(actorID, "users."+action)
}

// CanManageTeam decides a team action; team owners may manage their own
// team without the corresponding global permission.
func (a *Authorizer) CanManageTeam(actorID, ownerID int, action string) (bool, error) {
	if actorID == ownerID {
		return true, nil
	}
	return a.Can(actorID, "teams."+action)
}

// CanReadNotification restricts notification access to the owning user,
// super-admins aside.
func (a *Authorizer) CanReadNotification(actorID, ownerID int) (bool, error) {
	if actorID == ownerID {
		return true, nil
	}
	return a.perms.UserHasRole(actorID, globals.RoleSuperAdmin)
}
