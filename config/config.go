package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultLogLevel = "info"
	defaultLogEnv   = "prod"
)

// Config carries defaults that apply to every invocation: the connection
// profile for the target API plus tool-level settings. Per-invocation
// parameters always win over values set here.
type Config struct {
	Timeout     time.Duration `yaml:"timeout"`
	JournalPath string        `yaml:"journalPath"`
	MetricsAddr string        `yaml:"metricsAddr"`
	DryRun      bool          `yaml:"dryRun"`
	Log         Log           `yaml:"log"`
	Api         Api           `yaml:"api"`
}

// Api holds connection defaults merged under the invocation parameters
// when the caller omits them.
type Api struct {
	Url           string `yaml:"url"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	ValidateCerts *bool  `yaml:"validateCerts"`
}

type Log struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func Load(path string) (*Config, error) {
	configFile := true
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Default().Warn("fail find config file, proceeding", "path", path)
		configFile = false
	}

	var cfg Config
	if configFile {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	// Set log defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}

	// Override from environment if set
	if timeout := os.Getenv("ICINGA_RECONCILE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = d
		} else {
			slog.Default().Warn("fail parse timeout to duration from string", "timeout", timeout, "error", err)
		}
	}
	if journalPath := os.Getenv("ICINGA_RECONCILE_JOURNAL_PATH"); journalPath != "" {
		cfg.JournalPath = journalPath
	}
	if metricsAddr := os.Getenv("ICINGA_RECONCILE_METRICS_ADDR"); metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	if dryRun := os.Getenv("ICINGA_RECONCILE_DRYRUN"); dryRun != "" {
		switch strings.ToLower(dryRun) {
		case "true":
			cfg.DryRun = true
		case "false":
			cfg.DryRun = false
		default:
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
	if url := os.Getenv("ICINGA_RECONCILE_API_URL"); url != "" {
		cfg.Api.Url = url
	}
	if port := os.Getenv("ICINGA_RECONCILE_API_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Api.Port = p
		} else {
			slog.Default().Warn("fail parse port to int from string", "port", port, "error", err)
		}
	}
	if user := os.Getenv("ICINGA_RECONCILE_API_USER"); user != "" {
		cfg.Api.User = user
	}
	if password := os.Getenv("ICINGA_RECONCILE_API_PASSWORD"); password != "" {
		cfg.Api.Password = password
	}
	if validate := os.Getenv("ICINGA_RECONCILE_API_VALIDATE_CERTS"); validate != "" {
		switch strings.ToLower(validate) {
		case "true":
			v := true
			cfg.Api.ValidateCerts = &v
		case "false":
			v := false
			cfg.Api.ValidateCerts = &v
		default:
			slog.Default().Warn("fail parse validate_certs to bool from string", "validate_certs", validate)
		}
	}
	if loglevel := os.Getenv("ICINGA_RECONCILE_LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv("ICINGA_RECONCILE_LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
	return &cfg, nil
}

// Defaults returns the connection profile as a raw parameter map, suitable
// for merging under the invocation parameters.
func (c *Config) Defaults() map[string]any {
	defaults := map[string]any{}
	if c.Api.Url != "" {
		defaults["url"] = c.Api.Url
	}
	if c.Api.Port != 0 {
		defaults["port"] = c.Api.Port
	}
	if c.Api.User != "" {
		defaults["user"] = c.Api.User
	}
	if c.Api.Password != "" {
		defaults["password"] = c.Api.Password
	}
	if c.Api.ValidateCerts != nil {
		defaults["validate_certs"] = *c.Api.ValidateCerts
	}
	return defaults
}
