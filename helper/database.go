package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for the graph store.
// It is always passed explicitly to constructors, never read from package state.
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// Environment variables read by NewDatabaseConfiguration, with their defaults:
//
//	GRAPH_DATABASE_HOST     localhost
//	GRAPH_DATABASE_PORT     5432
//	GRAPH_DATABASE_NAME     cognify
//	GRAPH_DATABASE_USERNAME postgres
//	GRAPH_DATABASE_PASSWORD postgres
//	GRAPH_DATABASE_SCHEMA   public
//	GRAPH_DATABASE_SSLMODE  disable
const (
	EnvDatabaseHost     = "GRAPH_DATABASE_HOST"
	EnvDatabasePort     = "GRAPH_DATABASE_PORT"
	EnvDatabaseName     = "GRAPH_DATABASE_NAME"
	EnvDatabaseUsername = "GRAPH_DATABASE_USERNAME"
	EnvDatabasePassword = "GRAPH_DATABASE_PASSWORD"
	EnvDatabaseSchema   = "GRAPH_DATABASE_SCHEMA"
	EnvDatabaseSSLMode  = "GRAPH_DATABASE_SSLMODE"
)

// NewDatabaseConfiguration builds a DatabaseConfiguration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// Missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     envOrDefault(EnvDatabaseHost, "localhost"),
		Port:     envOrDefault(EnvDatabasePort, "5432"),
		Database: envOrDefault(EnvDatabaseName, "cognify"),
		Username: envOrDefault(EnvDatabaseUsername, "postgres"),
		Password: envOrDefault(EnvDatabasePassword, "postgres"),
		Schema:   envOrDefault(EnvDatabaseSchema, "public"),
		SSLMode:  envOrDefault(EnvDatabaseSSLMode, "disable"),
	}

	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, NewError("parse database port", fmt.Errorf("invalid port %q: %w", config.Port, err))
	}

	return config, nil
}

func envOrDefault(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// ConnectionString returns the lib/pq connection string for the configuration
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode, c.Schema,
	)
}

// Database wraps a sql.DB instance together with its logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to the configured PostgreSQL database.
// It panics on connection failure, the store is a hard dependency of every caller.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		log.Panicf("error opening database %v: %v", name, err)
	}

	err = db.Ping()
	if err != nil {
		log.Panicf("error connecting to database %v: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host), slog.String("port", config.Port))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase opens a database connection with a pretty stdout logger for tests
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	opts := PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelWarn,
		},
	}
	logger := slog.New(NewPrettyHandler(os.Stdout, opts))
	return NewDatabase("test", config, logger)
}
