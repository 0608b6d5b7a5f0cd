package models

import "time"

type Team struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	OwnerID    int       `json:"ownerId"`
	IsDeleted  bool      `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// TeamMember is a user within a team together with their team role.
type TeamMember struct {
	UserID   int       `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	RoleID   int       `json:"roleId"`
	RoleName string    `json:"roleName"`
	JoinedAt time.Time `json:"joinedAt"`
}
