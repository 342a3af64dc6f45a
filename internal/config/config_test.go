package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisgate/internal/model"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_PATH_STYLE", "true")
	t.Setenv("REDIS_REPLAY_TTL_SEC", "60")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Storage.MinIO.UseSSL)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "jurisgate.db", cfg.Store.SQLitePath)
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, 60, cfg.Redis.ReplayTTLSec)
	assert.Equal(t, 900, cfg.Storage.PresignExpirySec)
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "Europe/Paris"}
	loc := cfg.Location()
	want, err := time.LoadLocation("Europe/Paris")
	if err == nil {
		assert.Equal(t, want.String(), loc.String())
	}

	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path gives defaults", func(t *testing.T) {
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, 10, p.MinLinkJustification)
	})

	t.Run("missing file gives defaults", func(t *testing.T) {
		p, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, model.IsolationStrict, p.IsolationFor(model.BranchSTR))
	})

	t.Run("file overrides merge with defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
min_link_justification: 20
isolation:
  PEN: STRICT
storage_schemes: [s3]
`), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		assert.Equal(t, 20, p.MinLinkJustification)
		assert.Equal(t, model.IsolationStrict, p.IsolationFor(model.BranchPEN))
		assert.Equal(t, model.IsolationStrict, p.IsolationFor(model.BranchMED))
		assert.Equal(t, model.IsolationStrictWithReferences, p.IsolationFor(model.BranchCIV))
		assert.True(t, p.SchemeAllowed("s3"))
		assert.False(t, p.SchemeAllowed("local"))
	})

	t.Run("invalid policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("isolation:\n  XYZ: STRICT\n"), 0o600))
		_, err := LoadPolicy(path)
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("min_link_justification: [nope"), 0o600))
		_, err := LoadPolicy(path)
		assert.Error(t, err)
	})
}
