package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleTeamMember     Role = "team_member"
	RoleClient         Role = "client"
)

// User is the already-authenticated actor attached to each request. The
// users collection itself is owned by the auth service.
type User struct {
	ID    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email" bson:"email"`
	Role  Role               `json:"role" bson:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
