package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haguru/kakashi/config"
	"github.com/haguru/kakashi/internal/interfaces"
	"github.com/haguru/kakashi/pkg/databases"

	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second

	driverName = "postgres"
	idColumn   = "id"
)

// PostgresDatabaseClient implements the DBClient interface for PostgreSQL databases.
// Documents and filters are column maps; FindOne decodes rows into structs
// through their mapstructure tags.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	logger          interfaces.Logger
}

// NewPostgresDatabaseClient builds a client from the pool options, falling back
// to the package defaults for zero values.
func NewPostgresDatabaseClient(dbConfig *config.PostgresConfig, logger interfaces.Logger) (interfaces.DBClient, error) {
	if dbConfig == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient: config cannot be nil")
	}
	p := &PostgresDatabaseClient{
		MaxOpenConns:    dbConfig.Options.MaxOpenConns,
		MaxIdleConns:    dbConfig.Options.MaxIdleConns,
		ConnMaxLifetime: dbConfig.Options.ConnMaxLifetime,
		logger:          logger,
	}
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultMaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultMaxIdleConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	return p, nil
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	p.db = db

	p.logger.Info("Connecting to PostgreSQL", "max_open_conns", p.MaxOpenConns)
	return p.Ping(ctx)
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	p.logger.Info("Disconnecting from PostgreSQL")
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// InsertOne inserts a single row and returns its id. An id is generated
// when the document does not carry one.
func (p *PostgresDatabaseClient) InsertOne(ctx context.Context, tableName string, document interfaces.Document) (interface{}, error) {
	docMap, err := toColumnMap(document, "InsertOne")
	if err != nil {
		return nil, err
	}
	if p.db == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	row := make(map[string]interface{}, len(docMap)+1)
	for col, val := range docMap {
		row[col] = val
	}
	if id, exists := row[idColumn]; !exists || id == "" {
		row[idColumn] = uuid.New().String()
	}

	columns := sortedColumns(row)
	placeholders := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		values[i] = row[col]
	}

	//This is a safe use of fmt.Sprintf for SQL query construction, as the table name is controlled and not user input.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	) // #nosec G201

	var insertedID interface{}
	if err := p.db.QueryRowContext(ctx, query, values...).Scan(&insertedID); err != nil {
		return nil, fmt.Errorf("PostgresDatabaseClient: Failed to insert one into %s: %w", tableName, err)
	}
	if b, ok := insertedID.([]byte); ok {
		insertedID = string(b)
	}
	return insertedID, nil
}

// FindOne retrieves a single row matching filter and decodes it into result,
// which must be a pointer to a struct with mapstructure tags naming the columns.
func (p *PostgresDatabaseClient) FindOne(ctx context.Context, tableName string, filter interfaces.Document, result interfaces.Document) error {
	filterMap, err := toColumnMap(filter, "FindOne")
	if err != nil {
		return err
	}
	if len(filterMap) == 0 {
		return fmt.Errorf("PostgreSQL FindOne requires a non-empty filter")
	}

	where, values := whereClause(filterMap, 1)
	//This is a safe use of fmt.Sprintf for SQL query construction, as the table name is controlled and not user input.
	query := fmt.Sprintf("SELECT * FROM %s%s LIMIT 1", tableName, where) // #nosec G201

	rows, err := p.query(ctx, query, values)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("PostgresDatabaseClient: No row found in %s: %w", tableName, databases.ErrNotFound)
	}

	return decodeRow(rows[0], result)
}

// FindMany retrieves every row matching filter as a column map.
func (p *PostgresDatabaseClient) FindMany(ctx context.Context, tableName string, filter interfaces.Document) ([]interfaces.Document, error) {
	filterMap, err := toColumnMap(filter, "FindMany")
	if err != nil {
		return nil, err
	}

	where, values := whereClause(filterMap, 1)
	//This is a safe use of fmt.Sprintf for SQL query construction, as the table name is controlled and not user input.
	query := fmt.Sprintf("SELECT * FROM %s%s", tableName, where) // #nosec G201

	rows, err := p.query(ctx, query, values)
	if err != nil {
		return nil, err
	}

	results := make([]interfaces.Document, 0, len(rows))
	for _, row := range rows {
		results = append(results, row)
	}
	return results, nil
}

// UpdateOne updates the rows matching filter with the update column map.
func (p *PostgresDatabaseClient) UpdateOne(ctx context.Context, tableName string, filter interfaces.Document, update interfaces.Document) (int64, error) {
	filterMap, err := toColumnMap(filter, "UpdateOne")
	if err != nil {
		return 0, err
	}
	updateMap, err := toColumnMap(update, "UpdateOne")
	if err != nil {
		return 0, err
	}
	if len(filterMap) == 0 || len(updateMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL UpdateOne requires a non-empty filter and update")
	}

	columns := sortedColumns(updateMap)
	setClauses := make([]string, len(columns))
	values := make([]interface{}, 0, len(updateMap)+len(filterMap))
	for i, col := range columns {
		setClauses[i] = fmt.Sprintf("%s = $%d", col, i+1)
		values = append(values, updateMap[col])
	}
	where, whereValues := whereClause(filterMap, len(columns)+1)
	values = append(values, whereValues...)

	//This is a safe use of fmt.Sprintf for SQL query construction, as the table name is controlled and not user input.
	query := fmt.Sprintf("UPDATE %s SET %s%s", tableName, strings.Join(setClauses, ", "), where) // #nosec G201

	return p.exec(ctx, query, values)
}

// DeleteOne deletes the rows matching a non-empty filter.
func (p *PostgresDatabaseClient) DeleteOne(ctx context.Context, tableName string, filter interfaces.Document) (int64, error) {
	filterMap, err := toColumnMap(filter, "DeleteOne")
	if err != nil {
		return 0, err
	}
	if len(filterMap) == 0 {
		return 0, fmt.Errorf("PostgreSQL DeleteOne requires a non-empty filter")
	}

	where, values := whereClause(filterMap, 1)
	//This is a safe use of fmt.Sprintf for SQL query construction, as the table name is controlled and not user input.
	query := fmt.Sprintf("DELETE FROM %s%s", tableName, where) // #nosec G201

	return p.exec(ctx, query, values)
}

// DeleteMany deletes every row matching filter. An empty filter clears the table.
func (p *PostgresDatabaseClient) DeleteMany(ctx context.Context, tableName string, filter interfaces.Document) (int64, error) {
	filterMap, err := toColumnMap(filter, "DeleteMany")
	if err != nil {
		return 0, err
	}

	where, values := whereClause(filterMap, 1)
	//This is a safe use of fmt.Sprintf for SQL query construction, as the table name is controlled and not user input.
	query := fmt.Sprintf("DELETE FROM %s%s", tableName, where) // #nosec G201

	return p.exec(ctx, query, values)
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// EnsureSchema executes a CREATE TABLE (or CREATE INDEX) statement.
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interfaces.Document) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	createStmt, ok := schema.(string)
	if !ok || createStmt == "" {
		return fmt.Errorf("EnsureSchema: expected a DDL statement string for PostgreSQL, got %T", schema)
	}

	p.logger.Debug("Ensuring schema", "table", tableName)
	_, err := p.db.ExecContext(ctx, createStmt)
	return err
}

func (p *PostgresDatabaseClient) query(ctx context.Context, query string, values []interface{}) ([]map[string]interface{}, error) {
	if p.db == nil {
		return nil, fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	rows, err := p.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			p.logger.Warn("Failed to close rows", "error", cerr)
		}
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		columnPointers := make([]interface{}, len(columns))
		columnValues := make([]interface{}, len(columns))
		for i := range columns {
			columnPointers[i] = &columnValues[i]
		}

		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]interface{}, len(columns))
		for i, colName := range columns {
			if b, ok := columnValues[i].([]byte); ok {
				rowMap[colName] = string(b)
			} else {
				rowMap[colName] = columnValues[i]
			}
		}
		results = append(results, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *PostgresDatabaseClient) exec(ctx context.Context, query string, values []interface{}) (int64, error) {
	if p.db == nil {
		return 0, fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	res, err := p.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// decodeRow copies a column map into result using its mapstructure tags.
func decodeRow(row map[string]interface{}, result interfaces.Document) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           result,
	})
	if err != nil {
		return fmt.Errorf("PostgresDatabaseClient: result of type %T cannot be decoded into: %w", result, err)
	}
	if err := decoder.Decode(row); err != nil {
		return fmt.Errorf("PostgresDatabaseClient: failed to decode row: %w", err)
	}
	return nil
}

func toColumnMap(document interfaces.Document, op string) (map[string]interface{}, error) {
	if document == nil {
		return map[string]interface{}{}, nil
	}
	docMap, ok := document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("PostgreSQL %s expects map[string]interface{}, got %T", op, document)
	}
	return docMap, nil
}

// whereClause renders " WHERE a = $n AND b = $n+1" with columns in sorted
// order so the generated SQL is deterministic.
func whereClause(filter map[string]interface{}, start int) (string, []interface{}) {
	if len(filter) == 0 {
		return "", nil
	}

	columns := sortedColumns(filter)
	clauses := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		clauses[i] = fmt.Sprintf("%s = $%d", col, start+i)
		values[i] = filter[col]
	}
	return " WHERE " + strings.Join(clauses, " AND "), values
}

func sortedColumns(m map[string]interface{}) []string {
	columns := make([]string, 0, len(m))
	for col := range m {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
