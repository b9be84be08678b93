package config

import (
	"sort"
	"time"

	"github.com/jgivc/musicsync/internal/entity"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	ProgressBackendFile  = "file"
	ProgressBackendBlob  = "blob"
	ProgressBackendRedis = "redis"

	ResetPolicySuccess = "success"
	ResetPolicyAlways  = "always"
	ResetPolicyNever   = "never"

	DefaultWorkers = 15
	MaxWorkers     = 25

	defaultRoot           = "music"
	defaultExtension      = ".mp3"
	defaultMimeType       = "audio/mpeg"
	defaultReportInterval = 2 * time.Second
	defaultProgressPath   = "sync_progress.json"
	defaultProgressKey    = "musicsync:progress"
	defaultClientSecret   = "client_secret.json"
	defaultToken          = "token.json"
)

var defaultCollections = map[string]string{
	"neuro": "118gr4QuaGQGKfJ0X8VBCytvPjdzPayPY",
	"evil":  "16WT3-_bOG2I50YS9eBwNK9W99Uh-QhwK",
	"duet":  "16XWYR_-i0vAvKkmI9a77ZLiZTp20WHjs",
}

type CredentialsConfig struct {
	ClientSecret string `yaml:"client_secret"`
	Token        string `yaml:"token"`
}

type ProgressConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`       // file backend
	BucketURL   string `yaml:"bucket_url"` // blob backend
	Key         string `yaml:"key"`        // blob object key or redis key
	RedisURL    string `yaml:"redis_url"`
	ResetPolicy string `yaml:"reset_policy"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	Root           string            `yaml:"root"`
	Workers        int               `yaml:"workers"`
	LogLevel       string            `yaml:"log_level"`
	Extension      string            `yaml:"extension"`
	MimeType       string            `yaml:"mime_type"`
	QuickLimit     int               `yaml:"quick_limit"`
	ReportInterval time.Duration     `yaml:"report_interval"`
	FetchTimeout   time.Duration     `yaml:"fetch_timeout"`
	DriveEndpoint  string            `yaml:"drive_endpoint"`
	Credentials    CredentialsConfig `yaml:"credentials"`
	Progress       ProgressConfig    `yaml:"progress"`
	Metrics        MetricsConfig     `yaml:"metrics"`
	Collections    map[string]string `yaml:"collections"`
}

// SetDefaults fills every field except Collections, which is defaulted after
// the config file is read so that a file-provided mapping replaces the
// built-in one instead of being merged into it.
func (c *Config) SetDefaults() {
	c.Root = defaultRoot
	c.Workers = DefaultWorkers
	c.LogLevel = LogLevelInfo
	c.Extension = defaultExtension
	c.MimeType = defaultMimeType
	c.ReportInterval = defaultReportInterval
	c.Credentials = CredentialsConfig{
		ClientSecret: defaultClientSecret,
		Token:        defaultToken,
	}
	c.Progress = ProgressConfig{
		Backend:     ProgressBackendFile,
		Path:        defaultProgressPath,
		Key:         defaultProgressKey,
		ResetPolicy: ResetPolicySuccess,
	}
}

func (c *Config) setDefaultCollections() {
	if len(c.Collections) > 0 {
		return
	}

	c.Collections = make(map[string]string, len(defaultCollections))
	for name, id := range defaultCollections {
		c.Collections[name] = id
	}
}

// ClampWorkers keeps the pool size within [1, MaxWorkers].
func ClampWorkers(n int) int {
	switch {
	case n < 1:
		return 1
	case n > MaxWorkers:
		return MaxWorkers
	}

	return n
}

// CollectionList returns the configured collections sorted by name.
func (c *Config) CollectionList() []entity.Collection {
	names := make([]string, 0, len(c.Collections))
	for name := range c.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	collections := make([]entity.Collection, 0, len(names))
	for _, name := range names {
		collections = append(collections, entity.Collection{
			Name:     name,
			FolderID: c.Collections[name],
		})
	}

	return collections
}
