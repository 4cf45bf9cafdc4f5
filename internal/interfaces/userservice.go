package interfaces

import (
	"context"

	"github.com/haguru/kakashi/internal/models"
	"github.com/haguru/kakashi/internal/models/dto"
)

type UserService interface {
	RegisterUser(ctx context.Context, req dto.SignupRequestDTO) (string, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	Ping(ctx context.Context) error
}
