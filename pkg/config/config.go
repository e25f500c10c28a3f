package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is read from a YAML file under the user's home directory.
// All fields are optional; defaults are applied by the accessors.
//
// Example (~/.parley/config.yaml):
//
// server:
//   host: 127.0.0.1
//   port: 8088
//   db_path: ~/.parley/parley.db
//   admin_user: admin
//   admin_password: change-me
//
// remote:
//   url: http://127.0.0.1:8088
//   token: <session token from parley login>
//
// Notes:
// - If the config file does not exist, Load returns defaults without error.
// - If the config file exists but cannot be parsed, Load returns an error.
// - Port must be between 1 and 65535.

type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Remote RemoteConfig `yaml:"remote"`
}

type ServerConfig struct {
	Host          *string `yaml:"host"`
	Port          *int    `yaml:"port"`
	DBPath        *string `yaml:"db_path"`
	AdminUser     *string `yaml:"admin_user"`
	AdminPassword *string `yaml:"admin_password"`
}

type RemoteConfig struct {
	URL   *string `yaml:"url"`
	Token *string `yaml:"token"`
}

const (
	DefaultHost      = "127.0.0.1"
	DefaultPort      = 8088
	DefaultAdminUser = "admin"
)

// DefaultPaths returns the config dir and config file path.
func DefaultPaths() (configDir string, configFile string, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("get user home dir: %w", err)
	}
	configDir = filepath.Join(home, ".parley")
	configFile = filepath.Join(configDir, "config.yaml")
	return configDir, configFile, nil
}

// Load reads ~/.parley/config.yaml.
// If the file doesn't exist, it returns a default config and nil error.
func Load() (*AppConfig, string, error) {
	_, configFile, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	cfg := &AppConfig{}

	b, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, configFile, nil
		}
		return nil, "", fmt.Errorf("read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, "", fmt.Errorf("parse yaml config %s: %w", configFile, err)
	}

	// Validate
	if strings.TrimSpace(cfg.Host()) == "" {
		return nil, "", fmt.Errorf("invalid server.host (empty) in %s", configFile)
	}
	port := cfg.Port()
	if port < 1 || port > 65535 {
		return nil, "", fmt.Errorf("invalid server.port %d in %s", port, configFile)
	}

	return cfg, configFile, nil
}

// Save writes the config back to its file, creating the directory if
// needed. Used by `parley login` to persist the session token.
func Save(cfg *AppConfig) (string, error) {
	configDir, configFile, err := DefaultPaths()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", configDir, err)
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	// Restrictive permissions; the file may hold a session token.
	if err := os.WriteFile(configFile, b, 0o600); err != nil {
		return "", fmt.Errorf("write config file %s: %w", configFile, err)
	}
	return configFile, nil
}

func (c *AppConfig) Host() string {
	if c == nil || c.Server.Host == nil {
		return DefaultHost
	}
	v := strings.TrimSpace(*c.Server.Host)
	if v == "" {
		return DefaultHost
	}
	return v
}

func (c *AppConfig) Port() int {
	if c == nil || c.Server.Port == nil {
		return DefaultPort
	}
	return *c.Server.Port
}

func (c *AppConfig) DBPath() string {
	if c != nil && c.Server.DBPath != nil && strings.TrimSpace(*c.Server.DBPath) != "" {
		return *c.Server.DBPath
	}
	configDir, _, err := DefaultPaths()
	if err != nil {
		return "parley.db"
	}
	return filepath.Join(configDir, "parley.db")
}

func (c *AppConfig) AdminUser() string {
	if c == nil || c.Server.AdminUser == nil || strings.TrimSpace(*c.Server.AdminUser) == "" {
		return DefaultAdminUser
	}
	return *c.Server.AdminUser
}

func (c *AppConfig) AdminPassword() string {
	if c == nil || c.Server.AdminPassword == nil {
		return ""
	}
	return *c.Server.AdminPassword
}

func (c *AppConfig) RemoteURL() string {
	if c == nil {
		return fmt.Sprintf("http://%s:%d", DefaultHost, DefaultPort)
	}
	if c.Remote.URL == nil || strings.TrimSpace(*c.Remote.URL) == "" {
		return fmt.Sprintf("http://%s:%d", c.Host(), c.Port())
	}
	return strings.TrimSpace(*c.Remote.URL)
}

func (c *AppConfig) RemoteToken() string {
	if c == nil || c.Remote.Token == nil {
		return ""
	}
	return strings.TrimSpace(*c.Remote.Token)
}

// SetRemoteToken records a fresh session token on the config.
func (c *AppConfig) SetRemoteToken(token string) {
	c.Remote.Token = &token
}
