package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VULNARK_"

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit config file. When empty the file is discovered
	// (see Discover) and a missing file is not an error.
	Path string
	// EnvFile is a dotenv file. Defaults to ".env" in the working directory;
	// a missing file is ignored.
	EnvFile string
	// LookupEnv overrides os.LookupEnv, mostly for tests.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration. The result is meant to be read once and
// passed down explicitly.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Default()

	path := opts.Path
	explicit := path != ""
	if !explicit {
		cwd, _ := os.Getwd()
		path, _ = Discover(cwd)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", envFile, err)
	}
	lookup = withFallback(lookup, dotenv)

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func withFallback(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := fallback[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = b
		return nil
	}

	str("ORIGIN", &c.Server.Origin)
	str("API_PATH", &c.Server.APIPath)
	str("THEME", &c.UI.Theme)
	str("LOCALE", &c.UI.Locale)
	str("STORAGE_PATH", &c.Session.StoragePath)
	str("STORAGE_PASSPHRASE", &c.Session.Passphrase)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("LOG_FILE", &c.Logging.File)

	if v, ok := lookup(EnvPrefix + "PAGE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPAGE_SIZE: %w", EnvPrefix, err)
		}
		c.UI.PageSize = n
	}
	if v, ok := lookup(EnvPrefix + "TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err)
		}
		c.Timeouts.APIRequest = Duration(d)
	}

	flags := map[string]*bool{
		"DEBUG":                  &c.Debug.Enabled,
		"VALIDATE_REQUESTS":      &c.Debug.ValidateRequests,
		"FEATURE_AI_ASSISTANT":   &c.Features.AIAssistant,
		"FEATURE_FILE_UPLOAD":    &c.Features.FileUpload,
		"FEATURE_NOTIFICATIONS":  &c.Features.Notifications,
		"FEATURE_REPORTS":        &c.Features.Reports,
		"FEATURE_KNOWLEDGE_BASE": &c.Features.KnowledgeBase,
	}
	for name, dst := range flags {
		if err := boolean(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// Enabled reports a feature flag by its snake_case name.
func (f Features) Enabled(name string) bool {
	switch strings.ToLower(name) {
	case "ai_assistant":
		return f.AIAssistant
	case "file_upload":
		return f.FileUpload
	case "notifications":
		return f.Notifications
	case "reports":
		return f.Reports
	case "knowledge_base":
		return f.KnowledgeBase
	}
	return false
}
