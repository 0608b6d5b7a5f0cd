package globals

// Role IDs resolved at startup by initializers.InitDefaults.
// They are stable for the process lifetime once seeded.
var (
	SuperAdminRoleID int
	AdminRoleID      int
	MemberRoleID     int
)

// Role names as stored in the role table.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleMember     = "member"
)
