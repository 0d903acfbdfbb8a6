package domfind

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/domfind/retry"
)

// Config tunes the resolution engine. Zero values fall back to the
// defaults listed on each field.
type Config struct {
	// PerCandidateTimeout bounds each candidate attempt. Default 3s.
	PerCandidateTimeout time.Duration `yaml:"per_candidate_timeout"`

	// PollInterval is the probe cadence while an element is absent.
	// Default 100ms.
	PollInterval time.Duration `yaml:"poll_interval"`

	// Retry policy for operations outside the resolve loop (navigation,
	// captures). Defaults: 3 attempts, 500ms initial, x2, 5s cap.
	RetryMaxAttempts  int           `yaml:"retry_max_attempts"`
	BackoffInitial    time.Duration `yaml:"backoff_initial"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	BackoffMax        time.Duration `yaml:"backoff_max"`

	// Degradation window. Defaults: 5 failures in 300s.
	FailureWindow    time.Duration `yaml:"failure_window"`
	FailureThreshold int           `yaml:"failure_threshold"`

	// Ranking. Defaults: decay 0.3, latency weight 0.25.
	DecayAlpha    float64 `yaml:"decay_alpha"`
	LatencyWeight float64 `yaml:"latency_weight"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("domfind: parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.PerCandidateTimeout <= 0 {
		c.PerCandidateTimeout = 3 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.RetryMaxAttempts <= 0 {
		c.RetryMaxAttempts = 3
	}
	if c.BackoffInitial <= 0 {
		c.BackoffInitial = 500 * time.Millisecond
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2.0
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 5 * time.Second
	}
	if c.FailureWindow <= 0 {
		c.FailureWindow = 300 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.DecayAlpha <= 0 {
		c.DecayAlpha = 0.3
	}
	if c.LatencyWeight <= 0 {
		c.LatencyWeight = 0.25
	}
}

// RetryPolicy builds the generic retry policy described by the config.
// The resolver wires it into navigation-level helpers; the stale in-place
// retry uses its own immediate two-attempt policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  c.RetryMaxAttempts,
		InitialDelay: c.BackoffInitial,
		Multiplier:   c.BackoffMultiplier,
		MaxDelay:     c.BackoffMax,
		Jitter:       true,
	}
}
