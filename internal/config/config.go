// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents repository configuration stored in .papershelf/config.json.
type Config struct {
	Store             string  `json:"store"`                         // Blob backend: file or sqlite
	Timezone          string  `json:"timezone,omitempty"`            // IANA zone for display dates; empty means local
	UserAgent         string  `json:"user_agent,omitempty"`          // User-Agent for page fetches
	FetchTimeout      string  `json:"fetch_timeout,omitempty"`       // Go duration, e.g. "30s"
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"` // Per-host fetch rate
}

const (
	ShelfDir   = ".papershelf"
	ConfigFile = "config.json"
	StoreDir   = "store"
	DBFile     = "shelf.db"
	EnvFile    = ".env"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// ValidStores lists the supported store values.
var ValidStores = []string{StoreFile, StoreSQLite}

// Keys lists the settable configuration keys in display order.
var Keys = []string{"store", "timezone", "user-agent", "fetch-timeout", "requests-per-second"}

// ErrNoRepository is returned when no shelf repository can be located.
var ErrNoRepository = errors.New("not in a shelf repository (no .papershelf directory found)")

// Default returns the configuration written by shelf init.
func Default() *Config {
	return &Config{Store: StoreFile}
}

// ShelfPath returns the path to the .papershelf directory from a root path.
func ShelfPath(root string) string {
	return filepath.Join(root, ShelfDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, ShelfDir, ConfigFile)
}

// StorePath returns the path to the file store directory from a root path.
func StorePath(root string) string {
	return filepath.Join(root, ShelfDir, StoreDir)
}

// DBPath returns the path to shelf.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, ShelfDir, DBFile)
}

// IsRepository checks if the given path contains a shelf repository.
func IsRepository(root string) bool {
	info, err := os.Stat(ShelfPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a shelf repository.
// Returns the repository root path or ErrNoRepository.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNoRepository
		}
		abs = parent
	}
}

// ResolveRepository locates the repository to operate on. SHELF_ROOT wins,
// then a walk up from start, then the global shelf_path.
func ResolveRepository(start string) (string, error) {
	if root := os.Getenv("SHELF_ROOT"); root != "" {
		root = ExpandPath(root)
		if !IsRepository(root) {
			return "", fmt.Errorf("SHELF_ROOT %s: %w", root, ErrNoRepository)
		}
		return root, nil
	}

	if root, err := FindRepository(start); err == nil {
		return root, nil
	}

	if root := GetShelfPath(); root != "" && IsRepository(root) {
		return root, nil
	}
	return "", ErrNoRepository
}

// Init creates the repository directory and a default config at root.
// An existing repository is left untouched and reported as an error.
func Init(root string) (*Config, error) {
	if IsRepository(root) {
		return nil, fmt.Errorf("repository already exists at %s", ShelfPath(root))
	}
	if err := os.MkdirAll(ShelfPath(root), 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", ShelfDir, err)
	}
	cfg := Default()
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the repository at the given root and
// applies SHELF_* environment overrides.
func Load(root string) (*Config, error) {
	cfg, err := LoadFile(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads the stored configuration without environment overrides.
func LoadFile(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Store == "" {
		cfg.Store = StoreFile
	}
	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from SHELF_STORE, SHELF_TIMEZONE,
// SHELF_USER_AGENT, SHELF_FETCH_TIMEOUT and SHELF_REQUESTS_PER_SECOND.
func (c *Config) ApplyEnv() error {
	overrides := map[string]string{
		"store":               os.Getenv("SHELF_STORE"),
		"timezone":            os.Getenv("SHELF_TIMEZONE"),
		"user-agent":          os.Getenv("SHELF_USER_AGENT"),
		"fetch-timeout":       os.Getenv("SHELF_FETCH_TIMEOUT"),
		"requests-per-second": os.Getenv("SHELF_REQUESTS_PER_SECOND"),
	}
	for _, key := range Keys {
		if v := overrides[key]; v != "" {
			if err := c.Set(key, v); err != nil {
				return fmt.Errorf("environment override: %w", err)
			}
		}
	}
	return nil
}

// Get returns the string form of a configuration key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "store":
		return c.Store, nil
	case "timezone":
		return c.Timezone, nil
	case "user-agent":
		return c.UserAgent, nil
	case "fetch-timeout":
		return c.FetchTimeout, nil
	case "requests-per-second":
		if c.RequestsPerSecond == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.RequestsPerSecond, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("unknown configuration key: %s", key)
}

// Set validates and assigns a configuration key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "store":
		if err := ValidateStore(value); err != nil {
			return err
		}
		c.Store = value
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		c.Timezone = value
	case "user-agent":
		c.UserAgent = value
	case "fetch-timeout":
		if value != "" {
			if d, err := time.ParseDuration(value); err != nil || d <= 0 {
				return fmt.Errorf("invalid fetch-timeout %q (want a positive duration like 30s)", value)
			}
		}
		c.FetchTimeout = value
	case "requests-per-second":
		if value == "" {
			c.RequestsPerSecond = 0
			return nil
		}
		rps, err := strconv.ParseFloat(value, 64)
		if err != nil || rps <= 0 {
			return fmt.Errorf("invalid requests-per-second %q (want a positive number)", value)
		}
		c.RequestsPerSecond = rps
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	for _, key := range Keys {
		v, err := c.Get(key)
		if err != nil {
			return err
		}
		if v == "" && key != "store" {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return err
		}
	}
	return nil
}

// Location returns the configured display time zone, or local time.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Timeout returns the configured fetch timeout, or zero when unset.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 0
	}
	return d
}

// ValidateStore checks that the store value is valid.
func ValidateStore(store string) error {
	for _, valid := range ValidStores {
		if store == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid store: %s (valid: %v)", store, ValidStores)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
