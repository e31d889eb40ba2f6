package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server captures HTTP level configuration of the web frontend.
type Server struct {
	Addr        string        `mapstructure:"addr"`
	Environment string        `mapstructure:"environment"`
	LogLevel    string        `mapstructure:"log_level"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// CookieSecure marks the auth cookie Secure. Browsers refuse Secure
	// cookies over plain http, so local development turns it off.
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// API describes the remote todo REST API.
type API struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// BreakerThreshold consecutive transport failures stop calls for
	// BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

// Storage locates the durable client storage file.
type Storage struct {
	Path        string        `mapstructure:"path"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// Lists tunes the list query coordinators.
type Lists struct {
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	BulkDeleteJobs int           `mapstructure:"bulk_delete_jobs"`
}

// MockAPI configures the in-memory API used for development and tests.
type MockAPI struct {
	Addr          string        `mapstructure:"addr"`
	SigningKey    string        `mapstructure:"signing_key"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminEmail    string        `mapstructure:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password"`
	// PasswordCost is the bcrypt cost of stored password hashes.
	PasswordCost int `mapstructure:"password_cost"`
}

// Config is the full application configuration.
type Config struct {
	Server  Server  `mapstructure:"server"`
	API     API     `mapstructure:"api"`
	Storage Storage `mapstructure:"storage"`
	Lists   Lists   `mapstructure:"lists"`
	MockAPI MockAPI `mapstructure:"mock_api"`
}

// EnvPrefix namespaces every environment variable, e.g. TODO_API_BASE_URL.
const EnvPrefix = "TODO"

// Load builds the configuration from defaults, an optional config file named
// by TODO_CONFIG and TODO_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:3000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.cookie_secure", true)

	v.SetDefault("api.base_url", "http://127.0.0.1:8081")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.breaker_threshold", 5)
	v.SetDefault("api.breaker_cooldown", 30*time.Second)

	v.SetDefault("storage.path", DefaultStoragePath("session.db"))
	v.SetDefault("storage.open_timeout", time.Second)

	v.SetDefault("lists.page_size", 10)
	v.SetDefault("lists.search_debounce", 500*time.Millisecond)
	v.SetDefault("lists.bulk_delete_jobs", 4)

	v.SetDefault("mock_api.addr", "127.0.0.1:8081")
	v.SetDefault("mock_api.signing_key", "dev-secret-key-change-in-production")
	v.SetDefault("mock_api.token_ttl", 24*time.Hour)
	v.SetDefault("mock_api.admin_email", "admin@example.com")
	v.SetDefault("mock_api.admin_password", "admin-password")
	v.SetDefault("mock_api.password_cost", 10)
}

// DefaultStoragePath places name under the user's config directory,
// falling back to the working directory.
func DefaultStoragePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "todoweb", name)
}
