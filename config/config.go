package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

const (
	CONFIG_PATH = "./res/config.yaml"
	ENV_FILE    = ".env"

	DatabaseMongo    = "mongo"
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"

	// environment overrides
	EnvHost           = "KAKASHI_HOST"
	EnvPort           = "KAKASHI_PORT"
	EnvLogLevel       = "KAKASHI_LOG_LEVEL"
	EnvPrivateKeyPath = "KAKASHI_PRIVATE_KEY_PATH"
	EnvDatabaseType   = "KAKASHI_DATABASE_TYPE"
	EnvMongoDSN       = "KAKASHI_MONGO_DSN"
	EnvPostgresDSN    = "KAKASHI_POSTGRES_DSN"
	EnvAuthBaseURL    = "KAKASHI_AUTH_BASE_URL"
)

// ServiceConfig holds the configuration for the service.
type ServiceConfig struct {
	ServiceName    string          `yaml:"service_name" validate:"required"`
	LogLevel       string          `yaml:"loglevel" validate:"required"`
	Host           string          `yaml:"host" validate:"required"`
	Port           string          `yaml:"port" validate:"required"`
	PrivateKeyPath string          `yaml:"private_key_path" validate:"required"`
	Database       Database        `yaml:"database" validate:"required"`
	Portal         PortalConfig    `yaml:"portal" validate:"required"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

// Database selects the user store. Only the section matching Type is validated.
type Database struct {
	Type     string         `yaml:"type" validate:"required,oneof=mongo postgres memory"`
	MongoDB  MongoDBConfig  `yaml:"mongodb_config" validate:"-"`
	Postgres PostgresConfig `yaml:"postgres_config" validate:"-"`
}

type MongoDBConfig struct {
	DSN              string             `yaml:"dsn" validate:"required"`
	DatabaseName     string             `yaml:"database_name" validate:"required"`
	Timeout          time.Duration      `yaml:"timeout"`
	Options          MongoServerOptions `yaml:"mongo_server_options"`
	ValidCollections []string           `yaml:"valid_collections" validate:"required"`
	ValidFields      []string           `yaml:"valid_fields" validate:"required"`
}

type PostgresConfig struct {
	DSN          string                `yaml:"dsn" validate:"required"`
	DatabaseName string                `yaml:"database_name" validate:"required"`
	Options      PostgresServerOptions `yaml:"postgres_server_options"`
}

type MongoServerOptions struct {
	APIVersion           string `yaml:"api_version"`
	SetStrict            bool   `yaml:"set_strict"`
	SetDeprecationErrors bool   `yaml:"set_deprecation_errors"`
}

type PostgresServerOptions struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// PortalConfig configures the signup and login views.
type PortalConfig struct {
	AuthBaseURL    string        `yaml:"auth_base_url" validate:"required,url"`
	RedirectDelay  time.Duration `yaml:"redirect_delay"`
	LoginPath      string        `yaml:"login_path" validate:"omitempty,startswith=/"`
	ViewTTL        time.Duration `yaml:"view_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowOverlap   bool          `yaml:"allow_overlap"`
}

// RateLimitConfig configures the token bucket in front of the POST endpoints.
// A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// ReadLocalConfig reads the service configuration from a YAML file at the specified path.
// It unmarshals the YAML content into a ServiceConfig struct and returns it.
// If there is an error reading the file or unmarshaling the content, it returns an error.
func ReadLocalConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Load reads the YAML config, applies the environment overrides and validates the result.
func Load(configPath, envFile string, validator *structValidator.Validate) (*ServiceConfig, error) {
	cfg, err := ReadLocalConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := ApplyEnvOverrides(cfg, envFile); err != nil {
		return nil, err
	}
	if err := Validate(cfg, validator); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides loads envFile (a missing file is ignored) into the process
// environment and overrides the matching config values. Variables already set
// in the environment win over the file.
func ApplyEnvOverrides(cfg *ServiceConfig, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	overrides := map[string]*string{
		EnvHost:           &cfg.Host,
		EnvPort:           &cfg.Port,
		EnvLogLevel:       &cfg.LogLevel,
		EnvPrivateKeyPath: &cfg.PrivateKeyPath,
		EnvDatabaseType:   &cfg.Database.Type,
		EnvMongoDSN:       &cfg.Database.MongoDB.DSN,
		EnvPostgresDSN:    &cfg.Database.Postgres.DSN,
		EnvAuthBaseURL:    &cfg.Portal.AuthBaseURL,
	}
	for env, field := range overrides {
		if value, ok := os.LookupEnv(env); ok && value != "" {
			*field = value
		}
	}
	return nil
}

// Validate checks the struct tags and the database section selected by Database.Type.
func Validate(cfg *ServiceConfig, validator *structValidator.Validate) error {
	if err := validator.Struct(cfg); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	var err error
	switch cfg.Database.Type {
	case DatabaseMongo:
		err = validator.Struct(cfg.Database.MongoDB)
	case DatabasePostgres:
		err = validator.Struct(cfg.Database.Postgres)
	}
	if err != nil {
		return fmt.Errorf("validation error: %s database: %w", cfg.Database.Type, err)
	}
	return nil
}

func BuildServerAPIOptions(cfg MongoServerOptions) *options.ServerAPIOptions {
	opts := options.ServerAPI(options.ServerAPIVersion(cfg.APIVersion))
	opts.SetStrict(cfg.SetStrict)
	opts.SetDeprecationErrors(cfg.SetDeprecationErrors)

	return opts
}

func ListToMap(list []string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range list {
		result[item] = true
	}
	return result
}
