package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  host: 0.0.0.0
  port: 8080
database:
  host: localhost
  port: 5432
  user: propdesk
  database: propdesk
jwt:
  secret: "0123456789abcdef0123456789abcdef"
storage:
  upload_dir: /tmp/propdesk
edge:
  base_url: https://example.supabase.co
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 60, cfg.JWT.AccessTokenMinutes)
	assert.Equal(t, 30, cfg.Notifications.RetentionDays)
	assert.Equal(t, "0 0 6 * * *", cfg.Scheduler.GenerateNotifications)
	assert.Equal(t, "0 */15 * * * *", cfg.Scheduler.PruneSessions)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Zero(t, cfg.EdgeTimeout())
	assert.Equal(t, "0.0.0.0:8080", cfg.GetServerAddress())
	assert.Equal(t, "postgres://propdesk:@localhost:5432/propdesk?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("EDGE_API_KEY", "service-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "service-key", cfg.Edge.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate_Errors(t *testing.T) {
	t.Run("ShortSecret", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "h", User: "u", Database: "d"},
			JWT:      JWTConfig{Secret: "short"},
		}
		assert.ErrorContains(t, cfg.Validate(), "at least 32")
	})

	t.Run("GCSWithoutBucket", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "h", User: "u", Database: "d"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Storage:  StorageConfig{Type: "gcs"},
		}
		assert.ErrorContains(t, cfg.Validate(), "bucket")
	})

	t.Run("MissingEdge", func(t *testing.T) {
		cfg := &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Host: "h", User: "u", Database: "d"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Storage:  StorageConfig{UploadDir: "/tmp"},
		}
		assert.ErrorContains(t, cfg.Validate(), "edge")
	})
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("POST", "/api/v1/auth/login"))
	assert.Equal(t, SecurityRefresh, GetSecurityLevel("POST", "/api/v1/auth/refresh"))
	assert.Equal(t, SecurityVerify, GetSecurityLevel("POST", "/api/v1/auth/verify"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("GET", "/api/v1/payments"))
}
