package authclient

import "time"

const (
	SignupPath = "/api/signup"
	LoginPath  = "/api/login"

	SessionCookieName = "session_token"

	DefaultTimeout = 10 * time.Second

	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"

	// maximum error body read from the backend
	maxErrorBodyBytes = 64 << 10

	// Error messages
	ErrFailedToEncodeRequest = "failed to encode request"
	ErrFailedToBuildRequest  = "failed to build request"
	ErrRequestFailed         = "request to auth backend failed"
	ErrMissingSessionCookie  = "login response carried no session cookie"
)
