// Package config loads the application configuration from an optional YAML
// file, a .env file and TIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// Addr returns the listen address of the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Address, s.Port)
}

// Storage backends.
const (
	BackendSQL      = "sql"
	BackendDynamoDB = "dynamodb"
)

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the SQLite database file.
	Path string `mapstructure:"path"`
	// DSN is the Postgres connection string.
	DSN          string        `mapstructure:"dsn"`
	LogMode      bool          `mapstructure:"log_mode"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
}

type DynamoDBConfig struct {
	CardsTable   string `mapstructure:"cards_table"`
	TodosTable   string `mapstructure:"todos_table"`
	ChangesTable string `mapstructure:"changes_table"`
	// Endpoint overrides the AWS endpoint, e.g. for DynamoDB Local.
	Endpoint string `mapstructure:"endpoint"`
}

type ArchiveConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxAge   time.Duration `mapstructure:"max_age"`
	Interval time.Duration `mapstructure:"interval"`
}

type LedgerConfig struct {
	LockArchived bool `mapstructure:"lock_archived"`
}

// Event publishers.
const (
	PublisherNoop = "noop"
	PublisherLog  = "log"
	PublisherSQS  = "sqs"
)

type EventsConfig struct {
	Publisher string `mapstructure:"publisher"`
	QueueURL  string `mapstructure:"queue_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Events   EventsConfig   `mapstructure:"events"`
	Log      LogConfig      `mapstructure:"log"`
}

var defaults = map[string]any{
	"server.address":          "127.0.0.1",
	"server.port":             8080,
	"storage.backend":         BackendSQL,
	"database.driver":         DriverSQLite,
	"database.path":           "data/tin.db",
	"database.dsn":            "",
	"database.log_mode":       false,
	"database.busy_timeout":   5 * time.Second,
	"database.max_open_conns": 10,
	"database.max_idle_conns": 5,
	"dynamodb.cards_table":    "tin-cards",
	"dynamodb.todos_table":    "tin-todos",
	"dynamodb.changes_table":  "tin-change-log",
	"dynamodb.endpoint":       "",
	"archive.enabled":         true,
	"archive.max_age":         30 * 24 * time.Hour,
	"archive.interval":        24 * time.Hour,
	"ledger.lock_archived":    false,
	"events.publisher":        PublisherNoop,
	"events.queue_url":        "",
	"log.level":               "info",
	"log.format":              "text",
}

// Load reads configuration from path. When path is empty, tin.yaml is looked
// up in the working directory and is optional. Environment variables such as
// TIN_DATABASE_PATH override file values.
func Load(path string) (*Config, error) {
	// A missing .env file is fine outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path == "" {
		v.SetConfigName("tin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("TIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQL:
		switch c.Database.Driver {
		case DriverSQLite:
			if c.Database.Path == "" {
				return errors.New("database.path is required for sqlite")
			}
		case DriverPostgres:
			if c.Database.DSN == "" {
				return errors.New("database.dsn is required for postgres")
			}
		default:
			return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
		}
	case BackendDynamoDB:
		if c.DynamoDB.CardsTable == "" || c.DynamoDB.TodosTable == "" || c.DynamoDB.ChangesTable == "" {
			return errors.New("one or more dynamodb table names are not set")
		}
	default:
		return fmt.Errorf("unsupported storage.backend %q", c.Storage.Backend)
	}

	switch c.Events.Publisher {
	case PublisherNoop, PublisherLog:
	case PublisherSQS:
		if c.Events.QueueURL == "" {
			return errors.New("events.queue_url is required for the sqs publisher")
		}
	default:
		return fmt.Errorf("unsupported events.publisher %q", c.Events.Publisher)
	}

	if c.Archive.MaxAge <= 0 {
		return errors.New("archive.max_age must be positive")
	}
	if c.Archive.Enabled && c.Archive.Interval <= 0 {
		return errors.New("archive.interval must be positive")
	}
	return nil
}
