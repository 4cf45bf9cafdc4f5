// Package memory keeps users in process memory. It backs local development
// and tests, where no database is configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models"
	"github.com/haguru/kakashi/internal/userrepo/constants"
)

// MemoryUserRepository implements UserRepository over maps guarded by a RWMutex.
// Usernames are unique as given; emails are unique case-insensitively.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]models.User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() interfaces.UserRepository {
	return &MemoryUserRepository{
		byID:       make(map[string]models.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *MemoryUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return "", fmt.Errorf("%w: %s", constants.ErrDuplicateUsername, user.Username)
	}
	emailKey := strings.ToLower(user.Email)
	if _, taken := r.byEmail[emailKey]; taken {
		return "", fmt.Errorf("%w: %s", constants.ErrDuplicateEmail, user.Email)
	}

	user.ID = uuid.New().String()
	r.byID[user.ID] = user
	r.byUsername[user.Username] = user.ID
	r.byEmail[emailKey] = user.ID
	return user.ID, nil
}

func (r *MemoryUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.lookup(ctx, r.byUsername, username)
}

func (r *MemoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.lookup(ctx, r.byEmail, strings.ToLower(email))
}

func (r *MemoryUserRepository) lookup(ctx context.Context, index map[string]string, key string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, nil
	}
	user := r.byID[id]
	return &user, nil
}

// EnsureIndices is a no-op; the maps are the indices.
func (r *MemoryUserRepository) EnsureIndices(ctx context.Context) error {
	return nil
}

func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryUserRepository) Close(ctx context.Context) error {
	return nil
}
