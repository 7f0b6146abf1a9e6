package hickae

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// DefaultMaxWriters caps the correlation table at 1024x1024 entries
// (about 100 MB of affine G1 points).
const DefaultMaxWriters = 1024

// Config configures a System.
type Config struct {
	// MaxWriters is the largest writer population Precompute will build a
	// correlation table for.
	MaxWriters int `yaml:"max_writers"`
	// Workers bounds the goroutines used by Precompute, Extract and search.
	// Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// VerifyCorrelation re-checks every table entry against the pairing
	// e(P_i, Q_j) after Precompute. Costs n^2 pairings.
	VerifyCorrelation bool `yaml:"verify_correlation"`
	// LogLevel is parsed with logrus.ParseLevel when Logger is nil.
	LogLevel string `yaml:"log_level"`

	// Logger is an optional logger. If nil, one is created at LogLevel.
	Logger *logrus.Logger `yaml:"-"`
	// Random is the entropy source for all sampling. Defaults to crypto/rand.
	// It must be safe for concurrent use.
	Random io.Reader `yaml:"-"`
}

// DefaultConfig returns the configuration used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		MaxWriters: DefaultMaxWriters,
		LogLevel:   "info",
	}
}

// LoadConfig reads a YAML configuration file. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field as a parameter error.
func (c *Config) Validate() error {
	if c.MaxWriters < 0 {
		return paramErr("config", "max_writers must be >= 0, got %d", c.MaxWriters)
	}
	if c.Workers < 0 {
		return paramErr("config", "workers must be >= 0, got %d", c.Workers)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return paramErr("config", "log_level: %v", err)
		}
	}
	return nil
}

// withDefaults fills zero fields. Validate must have succeeded.
func (c Config) withDefaults() Config {
	if c.MaxWriters == 0 {
		c.MaxWriters = DefaultMaxWriters
	}
	if c.Random == nil {
		c.Random = rand.Reader
	}
	if c.Logger == nil {
		c.Logger = logrus.New()
		if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil && c.LogLevel != "" {
			c.Logger.SetLevel(lvl)
		}
	}
	return c
}
