package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (HRC_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL; the embedded catalog is used when empty" flag:"database-url"`
	// AdminKeyHashes are "name:hash" or bare hex HMAC-SHA256 hashes of admin
	// API keys, checked before the admin_api_keys table.
	AdminKeyHashes []string `usage:"Admin API key hashes (name:hash)" flag:"admin-key-hashes"`
	APIKeyPepper   string   `usage:"HMAC pepper for API key hashing (HRC_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Orders         OrdersConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// OrdersConfig controls order status handling.
type OrdersConfig struct {
	StrictStatus bool `default:"false" usage:"Reject status changes that are not forward moves" flag:"strict-status"`
}

// RateLimitConfig controls the per-client limit on checkout.
type RateLimitConfig struct {
	Max    int           `default:"20" usage:"Max checkouts per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from flags, environment variables and YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		Files: []string{"config.yaml", "/etc/hrc/config.yaml"},
	})
}

func loadConfig(base aconfig.Config) (*Config, error) {
	var cfg Config
	base.EnvPrefix = "HRC"
	base.FileDecoders = map[string]aconfig.FileDecoder{
		".yaml": aconfigyaml.New(),
	}
	if err := aconfig.LoaderFor(&cfg, base).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.RateLimit.Max <= 0 {
		return nil, errors.Errorf("rate limit max must be positive, got %d", cfg.RateLimit.Max)
	}
	if len(cfg.AdminKeyHashes) > 0 && cfg.APIKeyPepper == "" {
		return nil, errors.New("admin key hashes require HRC_API_KEY_PEPPER")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
