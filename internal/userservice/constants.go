package userservice

import "errors"

const (
	// Error messages for user service operations
	ErrFailedToHashPassword = "failed to hash password" // #nosec G101
	ErrFailedToRegisterUser = "failed to register user"
	ErrRetrievingUser       = "error retrieving user"
	ErrUserNotFound         = "user not found"
	ErrInvalidPassword      = "invalid password"
	ErrInvalidRole          = "invalid role"
)

var (
	// ErrUsernameTaken is returned by RegisterUser when the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned by RegisterUser when the email is already registered.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials is returned by AuthenticateUser for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
