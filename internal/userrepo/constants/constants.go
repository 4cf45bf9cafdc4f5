package constants

import "errors"

const (
	UsersCollection = "users"

	FieldID             = "id"
	FieldUsername       = "username"
	FieldEmail          = "email"
	FieldHashedPassword = "hashed_password"
	FieldRole           = "role"
	FieldCreatedAt      = "created_at"

	MaxLengthUsername = 64
	MaxLengthEmail    = 254
)

var (
	// ErrDuplicateUsername is returned by AddUser when the username is taken.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail is returned by AddUser when the email is taken.
	ErrDuplicateEmail = errors.New("email already exists")
)
