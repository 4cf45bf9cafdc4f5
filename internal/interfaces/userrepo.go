package interfaces

import (
	"context"

	"github.com/haguru/kakashi/internal/models"
)

// UserRepository defines the contract for storing and retrieving User data.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	AddUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureIndices(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
