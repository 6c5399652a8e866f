package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Duration is a time.Duration written as a string in TOML, e.g. "1.5s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config describes a composition of sources and how to play it.
type Config struct {
	// Source specs, in the order their track groups are exposed. See
	// media.OpenSource.
	Sources []string `toml:"sources"`

	// Start position.
	Position Duration `toml:"position"`

	// How far ahead of the playback position file sources buffer.
	BufferAhead Duration `toml:"buffer_ahead"`

	// Interval between polls of the composed source.
	PollInterval Duration `toml:"poll_interval"`

	// Address to serve the websocket status feed on. Empty disables it.
	Listen string `toml:"listen"`

	// LOGLEVEL-style directives, e.g. "info,multisource=debug".
	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		BufferAhead:  Duration(5 * time.Second),
		PollInterval: Duration(100 * time.Millisecond),
	}
}

// Load reads a TOML configuration file over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return &cfg, nil
}

// Validate checks that the configuration can be played.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources configured")
	}
	for i, s := range c.Sources {
		if s == "" {
			return errors.Errorf("source %d is empty", i)
		}
	}
	if c.Position < 0 {
		return errors.Errorf("negative position %v", time.Duration(c.Position))
	}
	if c.BufferAhead <= 0 {
		return errors.Errorf("buffer_ahead must be positive, got %v", time.Duration(c.BufferAhead))
	}
	if c.PollInterval <= 0 {
		return errors.Errorf("poll_interval must be positive, got %v", time.Duration(c.PollInterval))
	}
	return nil
}
