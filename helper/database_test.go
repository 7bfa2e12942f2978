package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabaseConfiguration(t *testing.T) {
	t.Run("Defaults apply when environment is empty", func(t *testing.T) {
		t.Setenv(EnvDatabaseHost, "")
		t.Setenv(EnvDatabasePort, "")
		t.Setenv(EnvDatabaseName, "")
		t.Setenv(EnvDatabaseUsername, "")
		t.Setenv(EnvDatabasePassword, "")
		t.Setenv(EnvDatabaseSchema, "")
		t.Setenv(EnvDatabaseSSLMode, "")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err, "Expected configuration with defaults to not return an error")

		assert.Equal(t, "localhost", config.Host, "Default host should be localhost")
		assert.Equal(t, "5432", config.Port, "Default port should be 5432")
		assert.Equal(t, "cognify", config.Database, "Default database should be cognify")
		assert.Equal(t, "postgres", config.Username, "Default username should be postgres")
		assert.Equal(t, "postgres", config.Password, "Default password should be postgres")
		assert.Equal(t, "public", config.Schema, "Default schema should be public")
		assert.Equal(t, "disable", config.SSLMode, "Default sslmode should be disable")
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv(EnvDatabaseHost, "db.internal")
		t.Setenv(EnvDatabasePort, "5433")
		t.Setenv(EnvDatabaseName, "knowledge")
		t.Setenv(EnvDatabaseUsername, "reader")
		t.Setenv(EnvDatabasePassword, "secret")
		t.Setenv(EnvDatabaseSchema, "graph")
		t.Setenv(EnvDatabaseSSLMode, "require")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err, "Expected configuration from environment to not return an error")

		assert.Equal(t, "db.internal", config.Host)
		assert.Equal(t, "5433", config.Port)
		assert.Equal(t, "knowledge", config.Database)
		assert.Equal(t, "reader", config.Username)
		assert.Equal(t, "secret", config.Password)
		assert.Equal(t, "graph", config.Schema)
		assert.Equal(t, "require", config.SSLMode)
	})

	t.Run("Invalid port returns error", func(t *testing.T) {
		t.Setenv(EnvDatabasePort, "not-a-port")

		config, err := NewDatabaseConfiguration()
		assert.Error(t, err, "Expected invalid port to return an error")
		assert.Nil(t, config, "Expected no configuration on error")
	})
}

func TestConnectionString(t *testing.T) {
	t.Run("Contains all configured values", func(t *testing.T) {
		config := &DatabaseConfiguration{
			Host:     "localhost",
			Port:     "5432",
			Database: "database",
			Username: "user",
			Password: "password",
			Schema:   "public",
			SSLMode:  "disable",
		}

		connStr := config.ConnectionString()

		assert.Contains(t, connStr, "host=localhost")
		assert.Contains(t, connStr, "port=5432")
		assert.Contains(t, connStr, "dbname=database")
		assert.Contains(t, connStr, "user=user")
		assert.Contains(t, connStr, "password=password")
		assert.Contains(t, connStr, "sslmode=disable")
		assert.Contains(t, connStr, "search_path=public")
	})
}
