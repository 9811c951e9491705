package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depmap/pkg/analyzer"
	"github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/scanner"
)

// Cache and store backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
	backendMongo = "mongo"
)

// Config is the on-disk configuration file. Flags override its values.
type Config struct {
	Aports  string   `toml:"aports"`
	Repos   []string `toml:"repos"`
	Workers int      `toml:"workers"`

	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
	Analysis AnalysisConfig `toml:"analysis"`
}

// CacheConfig selects the parse cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
}

// StoreConfig selects where snapshots are kept.
type StoreConfig struct {
	Backend    string `toml:"backend"`
	Path       string `toml:"path"`
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures depmap serve.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AnalysisConfig holds analyzer thresholds.
type AnalysisConfig struct {
	CoreThreshold int `toml:"core_threshold"`
	BaseThreshold int `toml:"base_threshold"`
	CycleLimit    int `toml:"cycle_limit"`
}

// Options converts the thresholds for the analyzer.
func (a AnalysisConfig) Options() analyzer.Options {
	return analyzer.Options{
		CoreThreshold: a.CoreThreshold,
		BaseThreshold: a.BaseThreshold,
		CycleLimit:    a.CycleLimit,
	}
}

// Duration is a time.Duration written as a Go duration string ("168h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Repos: append([]string(nil), scanner.DefaultRepos...),
		Cache: CacheConfig{
			Backend:   backendFile,
			TTL:       Duration{7 * 24 * time.Hour},
			RedisAddr: "localhost:6379",
		},
		Store: StoreConfig{
			Backend:    backendFile,
			MongoURI:   "mongodb://localhost:27017",
			Database:   appName,
			Collection: "snapshots",
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Analysis: AnalysisConfig{
			CoreThreshold: 50,
			BaseThreshold: 20,
			CycleLimit:    1000,
		},
	}
}

// LoadConfig reads path on top of the defaults. An empty path means the
// default location; a missing default file is not an error, a missing
// explicit one is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown config key %q in %s", undec[0].String(), path)
	}
	return cfg, cfg.Validate()
}

// Validate checks backends and numeric settings.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case backendFile, backendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q (want file or mongo)", c.Store.Backend)
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must be positive, got %d", c.Workers)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	for _, r := range c.Repos {
		if err := errors.ValidateRepoName(r); err != nil {
			return err
		}
	}
	if c.Analysis.CoreThreshold < 0 || c.Analysis.BaseThreshold < 0 || c.Analysis.CycleLimit < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "analysis thresholds must not be negative")
	}
	return nil
}

// CacheDir is the configured cache directory or the XDG default.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return cacheDir()
}

// SnapshotPath is where the file store keeps the snapshot.
func (c *Config) SnapshotPath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := c.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshot.json"), nil
}

// configPath returns the default config file location.
func configPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate config: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// cacheDir returns the cache directory using the XDG layout
// (~/.cache/depmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
