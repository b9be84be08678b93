package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/jgivc/musicsync/internal/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	envPrefix = "MUSICSYNC_"
	envFile   = ".env"
)

// Load builds the config from defaults, the YAML file at path, a .env file in
// the working directory and MUSICSYNC_* environment variables, in that order.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}
	cfg.setDefaultCollections()

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot load %s: %w", envFile, err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}

	cfg.Workers = ClampWorkers(cfg.Workers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv applies MUSICSYNC_* overrides.
func (c *Config) LoadFromEnv() error {
	strVars := map[string]*string{
		"ROOT":             &c.Root,
		"LOG_LEVEL":        &c.LogLevel,
		"EXTENSION":        &c.Extension,
		"MIME_TYPE":        &c.MimeType,
		"DRIVE_ENDPOINT":   &c.DriveEndpoint,
		"CLIENT_SECRET":    &c.Credentials.ClientSecret,
		"TOKEN":            &c.Credentials.Token,
		"PROGRESS_BACKEND": &c.Progress.Backend,
		"PROGRESS_PATH":    &c.Progress.Path,
		"PROGRESS_KEY":     &c.Progress.Key,
		"BUCKET_URL":       &c.Progress.BucketURL,
		"REDIS_URL":        &c.Progress.RedisURL,
		"RESET_POLICY":     &c.Progress.ResetPolicy,
		"METRICS_LISTEN":   &c.Metrics.Listen,
	}
	for name, dst := range strVars {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"WORKERS":     &c.Workers,
		"QUICK_LIMIT": &c.QuickLimit,
	}
	for name, dst := range intVars {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("cannot parse %s%s: %w", envPrefix, name, err)
			}
			*dst = n
		}
	}

	durVars := map[string]*time.Duration{
		"REPORT_INTERVAL": &c.ReportInterval,
		"FETCH_TIMEOUT":   &c.FetchTimeout,
	}
	for name, dst := range durVars {
		if v := os.Getenv(envPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("cannot parse %s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("config: root is required")
	}

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("config: %w: %q", common.ErrUnknownLogLevel, c.LogLevel)
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		return fmt.Errorf("config: workers must be in [1, %d]", MaxWorkers)
	}
	if c.Extension == "" {
		return errors.New("config: extension is required")
	}
	if c.QuickLimit < 0 {
		return errors.New("config: quick_limit must not be negative")
	}
	if c.ReportInterval <= 0 {
		return errors.New("config: report_interval must be positive")
	}
	if c.FetchTimeout < 0 {
		return errors.New("config: fetch_timeout must not be negative")
	}
	if len(c.Collections) == 0 {
		return errors.New("config: at least one collection is required")
	}
	for name, id := range c.Collections {
		if name == "" || id == "" {
			return fmt.Errorf("config: collection %q has an empty name or folder id", name)
		}
	}

	switch c.Progress.Backend {
	case ProgressBackendFile:
		if c.Progress.Path == "" {
			return errors.New("config: progress.path is required for the file backend")
		}
	case ProgressBackendBlob:
		if c.Progress.BucketURL == "" || c.Progress.Key == "" {
			return errors.New("config: progress.bucket_url and progress.key are required for the blob backend")
		}
	case ProgressBackendRedis:
		if c.Progress.RedisURL == "" || c.Progress.Key == "" {
			return errors.New("config: progress.redis_url and progress.key are required for the redis backend")
		}
	default:
		return fmt.Errorf("config: %w: %q", common.ErrUnknownProgressBackend, c.Progress.Backend)
	}

	switch c.Progress.ResetPolicy {
	case ResetPolicySuccess, ResetPolicyAlways, ResetPolicyNever:
	default:
		return fmt.Errorf("config: %w: %q", common.ErrUnknownResetPolicy, c.Progress.ResetPolicy)
	}

	return nil
}
