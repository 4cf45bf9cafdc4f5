package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/haguru/kakashi/config"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/pkg/databases"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"
)

// MongoDBClient implements the interfaces.DBClient interface for MongoDB operations.
type MongoDBClient struct {
	ServerOpts       *options.ServerAPIOptions
	client           *mongo.Client
	db               *mongo.Database
	timeout          time.Duration
	validCollections map[string]bool // A map to validate collection names
	validFields      map[string]bool // A map to validate field names
	logger           interfaces.Logger
}

// NewMongoDB returns a interface for db client and error if it occurs
func NewMongoDB(dbConfig *config.MongoDBConfig, logger interfaces.Logger) (interfaces.DBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("MongoDBClient: config cannot be nil")
	}
	db := &MongoDBClient{
		timeout:          dbConfig.Timeout,
		ServerOpts:       config.BuildServerAPIOptions(dbConfig.Options),
		validCollections: config.ListToMap(dbConfig.ValidCollections),
		validFields:      config.ListToMap(dbConfig.ValidFields),
		logger:           logger,
	}

	return db, nil
}

// Connect establishes a connection to the MongoDB database using the provided DSN (Data Source Name).
// The DSN should be in the format "mongodb://<host>:<port>/<database>"; its path
// selects the active database.
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: Invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}
	databaseName, err := getDBNameFromMongoDSN(dsn)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to extract database name from datasource name(dsn): %w", err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	clientOptions := options.Client().ApplyURI(dsn)
	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	m.logger.Info("Connecting to MongoDB", "database", databaseName)
	m.client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to connect: %w", err)
	}

	if err = m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDBClient: Failed to connect to MongoDB server: %w", err)
	}
	m.logger.Info("Connected to MongoDB", "database", databaseName)

	m.db = m.client.Database(databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB database.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	m.logger.Info("Disconnecting from MongoDB")
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}

	return nil
}

// InsertOne inserts a document and returns its ID. Driver errors are wrapped
// so callers can use mongo.IsDuplicateKeyError.
func (m *MongoDBClient) InsertOne(ctx context.Context, collectionName string, document interfaces.Document) (interface{}, error) {
	m.logger.Debug("Inserting one", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	sanitizedDocument, err := m.sanitizeDocument(document)
	if err != nil {
		return nil, err
	}

	res, err := m.db.Collection(collectionName).InsertOne(ctx, sanitizedDocument)
	if err != nil {
		return nil, fmt.Errorf("MongoDBClient: Failed to insert one into %s: %w", collectionName, err)
	}

	return res.InsertedID, nil
}

// FindOne retrieves a single document from the specified collection using a filter.
// It decodes the result into the provided variable; no match wraps databases.ErrNotFound.
func (m *MongoDBClient) FindOne(ctx context.Context, collectionName string, filter interfaces.Document, result interfaces.Document) error {
	m.logger.Debug("Finding one", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return err
	}

	err = m.db.Collection(collectionName).FindOne(ctx, sanitizedFilter).Decode(result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("MongoDBClient: No document found in %s: %w", collectionName, databases.ErrNotFound)
		}
		return fmt.Errorf("MongoDBClient: Failed to find one in %s: %w", collectionName, err)
	}

	return nil
}

// FindMany retrieves multiple documents from the specified collection.
func (m *MongoDBClient) FindMany(ctx context.Context, collectionName string, filter interfaces.Document) ([]interfaces.Document, error) {
	m.logger.Debug("Finding many", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return nil, err
	}

	cursor, err := m.db.Collection(collectionName).Find(ctx, sanitizedFilter)
	if err != nil {
		return nil, fmt.Errorf("MongoDBClient: Finding many in %s failed: %w", collectionName, err)
	}

	defer func() {
		if err := cursor.Close(ctx); err != nil {
			m.logger.Warn("Failed to close cursor", "collection", collectionName, "error", err)
		}
	}()

	var results []interfaces.Document
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("MongoDBClient: Failed to decode cursor: %w", err)
		}
		results = append(results, doc)
	}

	return results, cursor.Err()
}

// UpdateOne modifies a single document in the specified collection using a filter and update document.
// Returns the count of modified documents.
func (m *MongoDBClient) UpdateOne(ctx context.Context, collectionName string, filter interfaces.Document, update interfaces.Document) (int64, error) {
	m.logger.Debug("Updating one", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return 0, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return 0, err
	}
	sanitizedUpdate, err := m.sanitizeDocument(update)
	if err != nil {
		return 0, err
	}

	res, err := m.db.Collection(collectionName).UpdateOne(ctx, sanitizedFilter, bson.M{"$set": sanitizedUpdate})
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed updating one in %s: %w", collectionName, err)
	}

	return res.ModifiedCount, nil
}

// DeleteOne removes a single document from the specified collection using a filter.
func (m *MongoDBClient) DeleteOne(ctx context.Context, collectionName string, filter interfaces.Document) (int64, error) {
	m.logger.Debug("Deleting one", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return 0, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return 0, err
	}

	res, err := m.db.Collection(collectionName).DeleteOne(ctx, sanitizedFilter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed deleting one from %s: %w", collectionName, err)
	}

	return res.DeletedCount, nil
}

// DeleteMany removes multiple documents from a collection using a filter.
func (m *MongoDBClient) DeleteMany(ctx context.Context, collectionName string, filter interfaces.Document) (int64, error) {
	m.logger.Debug("Deleting many", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return 0, err
	}

	sanitizedFilter, err := m.sanitizeDocument(filter)
	if err != nil {
		return 0, err
	}

	res, err := m.db.Collection(collectionName).DeleteMany(ctx, sanitizedFilter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed deleting many from %s: %w", collectionName, err)
	}

	return res.DeletedCount, nil
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("MongoDBClient is not connected")
	}
	return m.client.Ping(ctx, nil)
}

// EnsureSchema creates the required index on the specified collection using the provided mongo.IndexModel.
// If the collection does not exist, it will be created automatically.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, schema interfaces.Document) error {
	if m.db == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}

	model, ok := schema.(mongo.IndexModel)
	if !ok {
		return fmt.Errorf("EnsureSchema: expected mongo.IndexModel for MongoDB, got %T", schema)
	}
	_, err := m.db.Collection(collectionName).Indexes().CreateOne(ctx, model)
	return err
}

func (m *MongoDBClient) checkCollection(collectionName string) error {
	if collectionName == "" {
		return fmt.Errorf("MongoDBClient: Collection name cannot be empty")
	}
	if !m.validCollections[collectionName] {
		return fmt.Errorf("MongoDBClient: Invalid collection name: %s", collectionName)
	}
	if m.db == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}
	return nil
}

// sanitizeDocument copies the allowed fields of document into a bson.M.
// Structs are flattened through their bson tags first. The _id field and any
// key that is not allow-listed or contains '$' or '.' is dropped, which keeps
// operator injection out of filters and updates.
func (m *MongoDBClient) sanitizeDocument(document interfaces.Document) (bson.M, error) {
	if document == nil {
		return bson.M{}, nil
	}

	var docMap map[string]interface{}
	switch doc := document.(type) {
	case bson.M:
		docMap = doc
	case map[string]interface{}:
		docMap = doc
	default:
		raw, err := bson.Marshal(document)
		if err != nil {
			return nil, fmt.Errorf("MongoDBClient: document of type %T cannot be sanitized: %w", document, err)
		}
		flattened := bson.M{}
		if err := bson.Unmarshal(raw, &flattened); err != nil {
			return nil, fmt.Errorf("MongoDBClient: document of type %T cannot be sanitized: %w", document, err)
		}
		docMap = flattened
	}

	sanitized := bson.M{}
	for key, value := range docMap {
		if key == IDFIELD {
			continue
		}
		if !m.validFields[key] || strings.ContainsAny(key, "$.") {
			m.logger.Warn("Skipping invalid or unsafe field name", "field", key)
			continue
		}
		sanitized[key] = value
	}

	return sanitized, nil
}

// getDBNameFromMongoDSN extracts the database name from a MongoDB DSN.
func getDBNameFromMongoDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MongoDB DSN: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("no database name found in MongoDB DSN path")
	}

	// only the first path segment names the database
	if idx := strings.Index(dbName, "/"); idx != -1 {
		dbName = dbName[:idx]
	}

	return dbName, nil
}
