// Package store holds local state: config.json with its env overrides, and the TUI
// state file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override config.json.
const (
	EnvConfigDir = "CATALOG_CONFIG_DIR"
	EnvAPIURL    = "CATALOG_API_URL"
	EnvUser      = "CATALOG_USER"
	EnvDBServer  = "CATALOG_DB_SERVER"
	EnvLogFile   = "CATALOG_LOG_FILE"
	EnvLogLevel  = "CATALOG_LOG_LEVEL"
)

type Config struct {
	// APIURL is the backend base URL, e.g. http://localhost:3034.
	APIURL   string `json:"apiUrl,omitempty"`
	User     string `json:"user,omitempty"`
	DBServer string `json:"dbServer,omitempty"`

	LogFile  string `json:"logFile,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`

	DevServer *DevServerConfig `json:"devServer,omitempty"`
}

type DevServerConfig struct {
	Addr string `json:"addr,omitempty"`
	// DBPath is the SQLite file; empty means <config dir>/devserver.db.
	DBPath string `json:"dbPath,omitempty"`
}

// configKeys maps `config set` keys to their fields.
var configKeys = map[string]func(c *Config) *string{
	"apiUrl":   func(c *Config) *string { return &c.APIURL },
	"user":     func(c *Config) *string { return &c.User },
	"dbServer": func(c *Config) *string { return &c.DBServer },
	"logFile":  func(c *Config) *string { return &c.LogFile },
	"logLevel": func(c *Config) *string { return &c.LogLevel },
	"devServer.addr": func(c *Config) *string {
		if c.DevServer == nil {
			c.DevServer = &DevServerConfig{}
		}
		return &c.DevServer.Addr
	},
	"devServer.dbPath": func(c *Config) *string {
		if c.DevServer == nil {
			c.DevServer = &DevServerConfig{}
		}
		return &c.DevServer.DBPath
	},
}

// ConfigKeys lists the keys accepted by Set, sorted.
func ConfigKeys() []string {
	out := make([]string, 0, len(configKeys))
	for k := range configKeys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Set assigns a config value by key.
func (c *Config) Set(key, value string) error {
	field, ok := configKeys[strings.TrimSpace(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (expected one of: %s)", key, strings.Join(ConfigKeys(), ", "))
	}
	*field(c) = strings.TrimSpace(value)
	return nil
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.catalog).
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".catalog"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadConfig reads config.json. A missing file is an empty config.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadEnvFiles loads .env files into the process environment without overriding
// variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with non-empty environment variables.
func (c *Config) ApplyEnv() {
	for env, dst := range map[string]*string{
		EnvAPIURL:   &c.APIURL,
		EnvUser:     &c.User,
		EnvDBServer: &c.DBServer,
		EnvLogFile:  &c.LogFile,
		EnvLogLevel: &c.LogLevel,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// Resolve loads config.json, then .env files, then applies the environment.
func Resolve() (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Keep the previous config as config.json.bak; failures here never block the save.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}

// DevServerDBPath returns the configured dev server database, defaulting into the
// config dir.
func (c *Config) DevServerDBPath() (string, error) {
	if c.DevServer != nil && strings.TrimSpace(c.DevServer.DBPath) != "" {
		return c.DevServer.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "devserver.db"), nil
}
