package interfaces

import "context"

// Document is anything a DBClient can store, filter on or decode into:
// bson.M or a tagged struct for MongoDB, a column map or a mapstructure
// tagged struct for PostgreSQL.
type Document interface{}

// DBClient is the storage surface the user repositories are built on.
// collectionName is a collection for MongoDB and a table for PostgreSQL.
type DBClient interface {
	Connect(ctx context.Context, dsn string) error
	Disconnect(ctx context.Context) error

	// InsertOne returns the id of the stored document.
	InsertOne(ctx context.Context, collectionName string, document Document) (interface{}, error)
	// FindOne decodes the first match into result, which must be a pointer.
	// It wraps databases.ErrNotFound when nothing matches.
	FindOne(ctx context.Context, collectionName string, filter Document, result Document) error
	FindMany(ctx context.Context, collectionName string, filter Document) ([]Document, error)

	// UpdateOne, DeleteOne and DeleteMany return the number of affected documents.
	UpdateOne(ctx context.Context, collectionName string, filter Document, update Document) (int64, error)
	DeleteOne(ctx context.Context, collectionName string, filter Document) (int64, error)
	DeleteMany(ctx context.Context, collectionName string, filter Document) (int64, error)

	Ping(ctx context.Context) error

	// EnsureSchema applies a backend-specific schema definition: a
	// mongo.IndexModel for MongoDB, a DDL statement for PostgreSQL.
	EnsureSchema(ctx context.Context, collectionName string, schema Document) error
}
