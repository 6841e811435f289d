// Package config loads the shield service configuration: operating mode,
// volumetric thresholds, auto-block policy, and where the rule set lives.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vajra-security/shield/pkg/autoblock"
	"github.com/vajra-security/shield/pkg/defaults"
	"github.com/vajra-security/shield/pkg/shield"
)

// ErrInvalidConfig indicates the configuration is syntactically or
// semantically invalid (bad YAML, inverted thresholds, unknown mode).
// Callers should use errors.Is() to check for it.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Duration wraps time.Duration so YAML files can write "30s" or "5m";
// yaml.v3 only decodes bare integers into time.Duration.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler for duration strings.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the full service configuration as read from disk.
type Config struct {
	// Shield holds the evaluator's mode and thresholds.
	Shield shield.Config `yaml:"shield"`

	// AutoBlock holds the persistent blocking policy.
	AutoBlock autoblock.Config `yaml:"auto_block"`

	// RulesFile points at the tenant rule set (YAML or JSON). Empty means
	// no custom rules.
	RulesFile string `yaml:"rules_file"`

	// RateWindow is the sliding-window span for per-IP rate measurement.
	RateWindow Duration `yaml:"rate_window"`
}

// Default returns the stock configuration: monitor mode, default
// thresholds, auto-block on.
func Default() Config {
	return Config{
		Shield:     shield.DefaultConfig(),
		AutoBlock:  autoblock.DefaultConfig(),
		RateWindow: Duration(defaults.RateWindowSeconds * time.Second),
	}
}

// Validate checks semantic invariants after loading.
func (c Config) Validate() error {
	if err := c.Shield.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.RateWindow < 0 {
		return fmt.Errorf("%w: negative rate_window %v", ErrInvalidConfig, c.RateWindow.Std())
	}
	if c.AutoBlock.DurationMinutes < 0 {
		return fmt.Errorf("%w: negative auto_block duration %d", ErrInvalidConfig, c.AutoBlock.DurationMinutes)
	}
	return nil
}

// LoadFromFile loads and validates a YAML config file. Fields absent from
// the file keep their defaults.
func LoadFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads and validates YAML config from a reader, on top of Default().
func Load(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
