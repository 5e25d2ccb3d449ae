package di_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/dicore"
	"github.com/sectrean/dicore/internal/testutils"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_Config_Validate(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		assert.NoError(t, di.DefaultConfig().Validate())
	})

	t.Run("negative values", func(t *testing.T) {
		cfg := di.Config{MaxCacheSize: -1, CacheTTLSeconds: -2}

		err := cfg.Validate()
		testutils.LogError(t, err)

		assert.EqualError(t, err, "invalid config: "+
			"max cache size must not be negative, got -1\n"+
			"cache ttl must not be negative, got -2")
	})
}

func Test_LoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := di.LoadConfig("")
		require.NoError(t, err)

		assert.Equal(t, di.DefaultConfig(), cfg)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeFile(t, "di.yaml", `
max_cache_size: 50
cache_ttl_seconds: 60
enable_tracking: false
environment: production
`)

		cfg, err := di.LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, di.Config{
			MaxCacheSize:       50,
			CacheTTLSeconds:    60,
			EnableServiceCache: true,
			EnableTracking:     false,
			Environment:        "production",
		}, cfg)
	})

	t.Run("env file", func(t *testing.T) {
		path := writeFile(t, "di.yaml", "max_cache_size: 50\n")
		envFile := writeFile(t, ".env", "DI_MAX_CACHE_SIZE=10\nDI_ENVIRONMENT=staging\n")

		cfg, err := di.LoadConfig(path, envFile)
		require.NoError(t, err)

		assert.Equal(t, 10, cfg.MaxCacheSize)
		assert.Equal(t, "staging", cfg.Environment)
	})

	t.Run("earlier env file wins", func(t *testing.T) {
		first := writeFile(t, ".env.local", "DI_ENVIRONMENT=local\n")
		second := writeFile(t, ".env", "DI_ENVIRONMENT=staging\nDI_CACHE_TTL_SECONDS=5\n")

		cfg, err := di.LoadConfig("", first, second)
		require.NoError(t, err)

		assert.Equal(t, "local", cfg.Environment)
		assert.Equal(t, 5, cfg.CacheTTLSeconds)
	})

	t.Run("process environment wins", func(t *testing.T) {
		envFile := writeFile(t, ".env", "DI_ENABLE_SERVICE_CACHE=true\n")
		t.Setenv(di.EnvEnableServiceCache, "false")

		cfg, err := di.LoadConfig("", envFile)
		require.NoError(t, err)

		assert.False(t, cfg.EnableServiceCache)
	})

	t.Run("missing env file", func(t *testing.T) {
		cfg, err := di.LoadConfig("", filepath.Join(t.TempDir(), ".env"))
		require.NoError(t, err)

		assert.Equal(t, di.DefaultConfig(), cfg)
	})

	t.Run("missing yaml file", func(t *testing.T) {
		_, err := di.LoadConfig(filepath.Join(t.TempDir(), "di.yaml"))
		testutils.LogError(t, err)

		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, "di.yaml", "max_cache_size: [")

		_, err := di.LoadConfig(path)
		testutils.LogError(t, err)

		assert.ErrorContains(t, err, "di.LoadConfig "+path)
	})

	t.Run("invalid env values", func(t *testing.T) {
		t.Setenv(di.EnvMaxCacheSize, "many")
		t.Setenv(di.EnvEnableTracking, "maybe")

		_, err := di.LoadConfig("")
		testutils.LogError(t, err)

		assert.ErrorContains(t, err, "di.LoadConfig: DI_MAX_CACHE_SIZE: ")
		assert.ErrorContains(t, err, "DI_ENABLE_TRACKING: ")
	})

	t.Run("used by container", func(t *testing.T) {
		path := writeFile(t, "di.yaml", "environment: production\n")

		cfg, err := di.LoadConfig(path)
		require.NoError(t, err)

		c, err := di.NewContainer(di.WithConfig(cfg))
		require.NoError(t, err)

		assert.Equal(t, "production", c.Environment())
	})
}
