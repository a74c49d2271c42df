package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	UI       UIConfig       `toml:"ui"`
}

// BackendConfig points at the same-origin movie backend and its routes.
type BackendConfig struct {
	BaseURL        string        `toml:"base_url"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	CSRFCookie     string        `toml:"csrf_cookie"`
	Routes         RoutesConfig  `toml:"routes"`
	Breaker        BreakerConfig `toml:"breaker"`
}

// RoutesConfig holds backend paths. Detail contains a single %s for the IMDb id.
type RoutesConfig struct {
	Search   string `toml:"search"`
	Trending string `toml:"trending"`
	Recent   string `toml:"recent"`
	Mood     string `toml:"mood"`
	Detail   string `toml:"detail"`
	Personal string `toml:"personal"`
	Track    string `toml:"track"`
	Feedback string `toml:"feedback"`
}

// BreakerConfig tunes the circuit breaker wrapped around the backend transport.
type BreakerConfig struct {
	MaxFailures uint32        `toml:"max_failures"`
	Timeout     time.Duration `toml:"timeout"`
}

// AuthConfig contains the hosted auth provider settings.
type AuthConfig struct {
	URL         string `toml:"url"`
	AnonKey     string `toml:"anon_key"`
	RedirectURI string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the local callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// UIConfig tunes the discovery controllers shared by the TUI and CLI.
type UIConfig struct {
	DispatchTimeout time.Duration `toml:"dispatch_timeout"`
	ScrollDelay     time.Duration `toml:"scroll_delay"`
	MessageTTL      time.Duration `toml:"message_ttl"`
	TrackRate       float64       `toml:"track_rate"`
	HydrateWorkers  int           `toml:"hydrate_workers"`
	Genres          []string      `toml:"genres"`
	Moods           []string      `toml:"moods"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (".env" when none are given) and overlays
// well-known environment variables onto config. Missing dotenv files are ignored.
func ApplyEnv(config *Config, files ...string) {
	_ = godotenv.Load(files...)

	config.Backend.BaseURL = getEnv("FLICKX_BACKEND_URL", config.Backend.BaseURL)
	config.Auth.URL = getEnv("SUPABASE_URL", config.Auth.URL)
	config.Auth.AnonKey = getEnv("SUPABASE_ANON_KEY", config.Auth.AnonKey)
	config.Database.Path = getEnv("FLICKX_DB_PATH", config.Database.Path)
}

// Validate reports whether config can reach the backend and the auth provider.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("%w: backend.base_url is required", ErrMissingConfig)
	}
	if c.Auth.URL == "" || c.Auth.AnonKey == "" {
		return fmt.Errorf("%w: auth.url and auth.anon_key are required", ErrMissingCredentials)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
