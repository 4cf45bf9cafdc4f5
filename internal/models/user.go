package models

import "time"

// Role is the account role chosen at signup.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
)

// Roles lists every role a user may sign up with, in display order.
var Roles = []Role{RoleAdmin, RoleAccountant}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User represents an internal user model for the application/database.
type User struct {
	ID             string    `bson:"_id,omitempty" mapstructure:"id" db:"id"`
	Username       string    `bson:"username" mapstructure:"username" db:"username"`
	Email          string    `bson:"email" mapstructure:"email" db:"email"`
	HashedPassword string    `bson:"hashed_password" mapstructure:"hashed_password" db:"hashed_password"`
	Role           Role      `bson:"role" mapstructure:"role" db:"role"`
	CreatedAt      time.Time `bson:"created_at" mapstructure:"created_at" db:"created_at"`
}

// NewUser creates a new User instance with the given fields.
// Note: No validation is performed here and CreatedAt is left for the caller.
func NewUser(username, email, hashedPassword string, role Role) *User {
	return &User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           role,
	}
}
