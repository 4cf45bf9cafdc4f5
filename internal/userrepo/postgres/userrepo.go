package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models"
	"github.com/haguru/kakashi/internal/userrepo/constants"
	"github.com/haguru/kakashi/pkg/databases"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// CreateUsersTable is the DDL applied by EnsureIndices.
const CreateUsersTable = `CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	role TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresUserRepository implements UserRepository for PostgreSQL databases.
type PostgresUserRepository struct {
	dbClient interfaces.DBClient
}

// NewPostgresUserRepository creates a new PostgreSQL repository instance.
func NewPostgresUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &PostgresUserRepository{dbClient: dbClient}, nil
}

// AddUser saves a new user to PostgreSQL via DBClient. The client generates the id.
func (r *PostgresUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	doc := map[string]interface{}{
		constants.FieldUsername:       user.Username,
		constants.FieldEmail:          user.Email,
		constants.FieldHashedPassword: user.HashedPassword,
		constants.FieldRole:           user.Role.String(),
		constants.FieldCreatedAt:      user.CreatedAt,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if strings.Contains(pqErr.Constraint, constants.FieldEmail) || strings.Contains(pqErr.Message, constants.FieldEmail) {
				return "", fmt.Errorf("%w: %s", constants.ErrDuplicateEmail, user.Email)
			}
			return "", fmt.Errorf("%w: %s", constants.ErrDuplicateUsername, user.Username)
		}
		return "", fmt.Errorf("failed to add user to PostgreSQL: %w", err)
	}

	strID, ok := insertedID.(string)
	if !ok {
		return "", fmt.Errorf("failed to assert inserted ID to string (expected UUID), got %T", insertedID)
	}
	return strID, nil
}

// GetUserByUsername retrieves a user from PostgreSQL. A missing user is (nil, nil).
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if len(username) == 0 || len(username) > constants.MaxLengthUsername {
		return nil, fmt.Errorf("invalid username: must be between 1 and %d characters", constants.MaxLengthUsername)
	}
	return r.findOne(ctx, map[string]interface{}{constants.FieldUsername: username})
}

// GetUserByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if len(email) == 0 || len(email) > constants.MaxLengthEmail {
		return nil, fmt.Errorf("invalid email: must be between 1 and %d characters", constants.MaxLengthEmail)
	}
	return r.findOne(ctx, map[string]interface{}{constants.FieldEmail: email})
}

func (r *PostgresUserRepository) findOne(ctx context.Context, filter map[string]interface{}) (*models.User, error) {
	var user models.User
	err := r.dbClient.FindOne(ctx, constants.UsersCollection, filter, &user)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user from PostgreSQL: %w", err)
	}
	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// EnsureIndices creates the users table with unique username and email columns.
func (r *PostgresUserRepository) EnsureIndices(ctx context.Context) error {
	return r.dbClient.EnsureSchema(ctx, constants.UsersCollection, CreateUsersTable)
}

// Ping checks the PostgreSQL connection.
func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.dbClient.Ping(ctx)
}

// Close closes the PostgreSQL database connection.
func (r *PostgresUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
