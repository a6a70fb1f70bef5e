package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "article_engagement", cfg.Database.Name)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "", cfg.Redis.URL, "cache disabled by default")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlData := `
server:
  port: "9090"
  read_timeout: 3s
database:
  name: engagement_from_file
  query_timeout: 2s
redis:
  url: redis://localhost:6379/1
  cache_ttl: 1m
auth:
  jwt_secret: file-secret
log:
  level: debug
  format: pretty
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_NAME", "engagement_from_env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "engagement_from_env", cfg.Database.Name, "env overrides file")
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.URL)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "pretty", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFrom_ExplicitPathWinsOverEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7070\"\nauth:\n  jwt_secret: flag-secret\n"), 0o600))

	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "flag-secret", cfg.Auth.JWTSecret)
}

func TestLoadFrom_EmptyPathSkipsFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestValidate_LogFormat(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.JWTSecret = "s"
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	db := Defaults().Database
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=article_engagement sslmode=disable",
		db.GetDSN())
}
