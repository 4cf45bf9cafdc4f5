package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/internal/models"
	"github.com/haguru/kakashi/internal/userrepo/constants"
	"github.com/haguru/kakashi/pkg/databases"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDocument is the BSON shape of a user.
type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Email          string             `bson:"email"`
	HashedPassword string             `bson:"hashed_password"`
	Role           string             `bson:"role"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d userDocument) toModel() *models.User {
	return &models.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		Role:           models.Role(d.Role),
		CreatedAt:      d.CreatedAt,
	}
}

// MongoUserRepository implements UserRepository using the generic DBClient.
type MongoUserRepository struct {
	dbClient interfaces.DBClient
}

// NewMongoUserRepository creates a new MongoDB repository instance.
func NewMongoUserRepository(dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	return &MongoUserRepository{dbClient: dbClient}, nil
}

// AddUser saves a new user to MongoDB via DBClient.
func (r *MongoUserRepository) AddUser(ctx context.Context, user models.User) (string, error) {
	doc := userDocument{
		Username:       user.Username,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		Role:           user.Role.String(),
		CreatedAt:      user.CreatedAt,
	}

	insertedID, err := r.dbClient.InsertOne(ctx, constants.UsersCollection, doc)
	if err != nil {
		if mongosdk.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), constants.FieldEmail) {
				return "", fmt.Errorf("%w: %s", constants.ErrDuplicateEmail, user.Email)
			}
			return "", fmt.Errorf("%w: %s", constants.ErrDuplicateUsername, user.Username)
		}
		return "", fmt.Errorf("failed to add user to MongoDB: %w", err)
	}

	switch id := insertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return "", fmt.Errorf("failed to assert inserted ID, got %T", insertedID)
	}
}

// GetUserByUsername retrieves a user from MongoDB via DBClient. A missing user is (nil, nil).
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if len(username) == 0 || len(username) > constants.MaxLengthUsername {
		return nil, fmt.Errorf("invalid username: must be between 1 and %d characters", constants.MaxLengthUsername)
	}
	return r.findOne(ctx, bson.M{constants.FieldUsername: username})
}

// GetUserByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *MongoUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if len(email) == 0 || len(email) > constants.MaxLengthEmail {
		return nil, fmt.Errorf("invalid email: must be between 1 and %d characters", constants.MaxLengthEmail)
	}
	return r.findOne(ctx, bson.M{constants.FieldEmail: email})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	err := r.dbClient.FindOne(ctx, constants.UsersCollection, filter, &doc)
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user from MongoDB: %w", err)
	}
	if doc.ID.IsZero() {
		return nil, nil
	}
	return doc.toModel(), nil
}

// EnsureIndices creates unique indices for username and email.
func (r *MongoUserRepository) EnsureIndices(ctx context.Context) error {
	for _, field := range []string{constants.FieldUsername, constants.FieldEmail} {
		indexModel := mongosdk.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		}
		if err := r.dbClient.EnsureSchema(ctx, constants.UsersCollection, indexModel); err != nil {
			return fmt.Errorf("failed to create %s index: %w", field, err)
		}
	}
	return nil
}

// Ping checks the MongoDB connection.
func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.dbClient.Ping(ctx)
}

// Close disconnects the MongoDB client.
func (r *MongoUserRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}
