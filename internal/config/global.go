package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/shelf/config.yml.
type GlobalConfig struct {
	ShelfPath string `yaml:"shelf_path,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "shelf"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalCache holds the last loaded global config and the path it came from.
// A changed XDG_CONFIG_HOME invalidates it.
var globalCache struct {
	sync.Mutex
	path string
	cfg  *GlobalConfig
}

// GlobalConfigPath returns the path to the global config file:
// $XDG_CONFIG_HOME/shelf/config.yml, or ~/.config/shelf/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file. A missing file is an
// empty config, not an error.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path := GlobalConfigPath()

	globalCache.Lock()
	defer globalCache.Unlock()
	if globalCache.cfg != nil && globalCache.path == path {
		return globalCache.cfg, nil
	}

	cfg, err := readGlobalConfig(path)
	if err != nil {
		return nil, err
	}
	globalCache.path, globalCache.cfg = path, cfg
	return cfg, nil
}

func readGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := &GlobalConfig{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading global config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.ShelfPath = ExpandPath(cfg.ShelfPath)
	return cfg, nil
}

// ResetGlobalConfigCache forgets the cached global config.
func ResetGlobalConfigCache() {
	globalCache.Lock()
	globalCache.cfg = nil
	globalCache.Unlock()
}

// GetShelfPath returns the configured default repository from global config.
func GetShelfPath() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.ShelfPath
}

// GetUserAgent returns the global User-Agent override.
func GetUserAgent() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return ""
	}
	return cfg.UserAgent
}

// HelpfulConfigMessage returns a helpful message when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No shelf repository found.

Run 'shelf init' to create one here, or create %s to set a default:
  mkdir -p %s
  echo 'shelf_path: /path/to/your/shelf' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
