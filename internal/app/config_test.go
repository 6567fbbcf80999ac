package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, yaml string) (*Config, error) {
	t.Helper()
	base := aconfig.Config{SkipFlags: true}
	if yaml != "" {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
		base.Files = []string{path}
	}
	return loadConfig(base)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := testConfig(t, "")
	require.NoError(t, err)

	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL, "embedded catalog by default")
	assert.False(t, cfg.Orders.StrictStatus)
	assert.Equal(t, 20, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, []string{"*"}, cfg.CORS.Origins)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("HRC_DATABASE_URL", "postgres://hrc@db/hrc")
	t.Setenv("HRC_API_KEY_PEPPER", "pepper")
	t.Setenv("HRC_ADMIN_KEY_HASHES", "ops:abc,def")

	cfg, err := testConfig(t, "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://hrc@db/hrc", cfg.DatabaseURL)
	assert.Equal(t, "pepper", cfg.APIKeyPepper)
	assert.Equal(t, []string{"ops:abc", "def"}, cfg.AdminKeyHashes)
}

func TestLoadConfig_File(t *testing.T) {
	cfg, err := testConfig(t, "addr: 127.0.0.1:9000\norders:\n  strict_status: true\n")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.True(t, cfg.Orders.StrictStatus)
}

func TestLoadConfig_PlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "3000")

	cfg, err := testConfig(t, "")
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr)

	t.Setenv("HRC_ADDR", "127.0.0.1:8081")
	cfg, err = testConfig(t, "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr, "explicit address wins over PORT")
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HRC_ADMIN_KEY_HASHES", "ops:abc")
	t.Setenv("HRC_API_KEY_PEPPER", "")

	_, err := testConfig(t, "")
	assert.Error(t, err)
}
