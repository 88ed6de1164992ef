// Package config holds the runtime configuration of the console. It is read
// once at startup from defaults, an optional YAML file, an optional .env file
// and VULNARK_* environment variables, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DirName is the per-user directory holding config and session storage.
	DirName = ".vulnark"
	// FileName is the config file inside DirName.
	FileName = "config.yaml"
	// StorageFileName is the durable client storage file inside DirName.
	StorageFileName = "storage.json"
)

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Features Features      `yaml:"features"`
	UI       UIConfig      `yaml:"ui"`
	Timeouts Timeouts      `yaml:"timeouts"`
	Session  SessionConfig `yaml:"session"`
	Logging  LoggingConfig `yaml:"logging"`
	Debug    DebugConfig   `yaml:"debug"`
}

// ServerConfig locates the REST API. The API base URL is derived from the
// origin the console talks to.
type ServerConfig struct {
	Origin  string `yaml:"origin"`
	APIPath string `yaml:"api_path"`
}

// Features toggles optional console capabilities.
type Features struct {
	AIAssistant   bool `yaml:"ai_assistant"`
	FileUpload    bool `yaml:"file_upload"`
	Notifications bool `yaml:"notifications"`
	Reports       bool `yaml:"reports"`
	KnowledgeBase bool `yaml:"knowledge_base"`
}

// UIConfig carries presentation defaults.
type UIConfig struct {
	Theme         string `yaml:"theme"`
	Locale        string `yaml:"locale"`
	PageSize      int    `yaml:"page_size"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

// Timeouts bounds remote calls.
type Timeouts struct {
	APIRequest Duration `yaml:"api_request"`
	FileUpload Duration `yaml:"file_upload"`
}

// SessionConfig controls durable session storage.
type SessionConfig struct {
	StoragePath string `yaml:"storage_path"`
	// Passphrase enables encryption at rest. Prefer the environment variable
	// over writing it into the config file.
	Passphrase string `yaml:"passphrase"`
}

// LoggingConfig selects level, format and destination of logs.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DebugConfig enables developer aids.
type DebugConfig struct {
	Enabled          bool `yaml:"enabled"`
	ValidateRequests bool `yaml:"validate_requests"`
}

// Duration is a time.Duration that reads and writes as "30s" in YAML.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Origin:  "http://localhost:8080",
			APIPath: "/api",
		},
		Features: Features{
			AIAssistant:   true,
			FileUpload:    true,
			Notifications: true,
			Reports:       true,
			KnowledgeBase: true,
		},
		UI: UIConfig{
			Theme:         "light",
			Locale:        "zh-CN",
			PageSize:      10,
			MaxUploadSize: 10 << 20,
		},
		Timeouts: Timeouts{
			APIRequest: Duration(30 * time.Second),
			FileUpload: Duration(5 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// APIBaseURL joins the origin and the API path.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.Server.Origin, "/") + "/" + strings.Trim(c.Server.APIPath, "/")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.Origin)
	if err != nil {
		return fmt.Errorf("server.origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.origin: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.origin: missing host in %q", c.Server.Origin)
	}
	if !strings.HasPrefix(c.Server.APIPath, "/") {
		return fmt.Errorf("server.api_path: must start with '/', got %q", c.Server.APIPath)
	}
	switch c.UI.Theme {
	case "light", "dark":
	default:
		return fmt.Errorf("ui.theme: must be light or dark, got %q", c.UI.Theme)
	}
	switch c.UI.Locale {
	case "zh-CN", "en-US":
	default:
		return fmt.Errorf("ui.locale: must be zh-CN or en-US, got %q", c.UI.Locale)
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("ui.page_size: must be positive, got %d", c.UI.PageSize)
	}
	if c.Timeouts.APIRequest <= 0 || c.Timeouts.FileUpload <= 0 {
		return fmt.Errorf("timeouts: must be positive")
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Session.Passphrase != "" {
		cp.Session.Passphrase = "********"
	}
	return &cp
}

// Dir returns ~/.vulnark.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// StoragePath returns the configured storage file or the default one.
func (c *Config) StoragePath() (string, error) {
	if c.Session.StoragePath != "" {
		return c.Session.StoragePath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StorageFileName), nil
}
