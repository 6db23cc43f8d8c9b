package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User roles
const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleClerk  = "clerk"
	RoleJudge  = "judge"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
	Version int32              `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in
// the user collection in mongo
type UserDetails struct {
	Name     string `json:"name" bson:"name"`
	Email    string `json:"email" bson:"email"`
	Username string `json:"username" bson:"username"`
	Password string `json:"password" bson:"password"`
	Phone    string `json:"phone" bson:"phone"`
	Role     string `json:"role" bson:"role"`

	// Lawyer fields
	BarNumber string `json:"barNumber,omitempty" bson:"barNumber,omitempty"`
	// Client roster, set semantics (duplicate adds are no-ops)
	Clients []string `json:"clients,omitempty" bson:"clients,omitempty"`

	// Judge fields
	Courtroom string `json:"courtroom,omitempty" bson:"courtroom,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
