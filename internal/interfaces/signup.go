package interfaces

import (
	"context"
	"time"

	"github.com/haguru/kakashi/internal/models/dto"
)

// SignupClient submits a signup request to the auth backend.
type SignupClient interface {
	Signup(ctx context.Context, req dto.SignupRequestDTO) error
}

// AuthClient is the full client surface the portal uses.
type AuthClient interface {
	SignupClient
	Login(ctx context.Context, req dto.LoginRequestDTO) (string, error)
}

// Navigator performs a view transition to path.
type Navigator interface {
	Navigate(path string)
}

// Timer is a handle to a scheduled one-shot task.
type Timer interface {
	// Stop prevents the task from running. It reports false if the task
	// already ran or was already stopped.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}
