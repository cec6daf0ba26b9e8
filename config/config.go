// Package config provides YAML configuration parsing for pollstate.
//
// Example configuration:
//
//	status_port: 8080
//
//	neynar:
//	  api_key: ${NEYNAR_API_KEY}
//
//	vercel:
//	  token: ${VERCEL_TOKEN}
//	  project_id: ${VERCEL_PROJECT_ID:-}
//
//	deployment:
//	  interval: 10s
//	  timeout: 10m
//
// Credentials missing from the file are filled from the environment by
// [Config.ApplyEnv].
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultNeynarURL is the Neynar API host used when none is configured.
	DefaultNeynarURL = "https://api.neynar.com"

	// DefaultVercelURL is the Vercel API host used when none is configured.
	DefaultVercelURL = "https://api.vercel.com"

	// minInterval keeps a misconfigured poll from hammering an API.
	minInterval = 100 * time.Millisecond
)

// Config is the root configuration structure for pollstate.
//
// It maps directly to the YAML configuration file structure.
// Use [Load], [Parse] or [Default] to create a Config.
type Config struct {
	// StatusPort is the port of the progress server. Zero disables it.
	StatusPort int `yaml:"status_port"`

	Neynar NeynarConfig `yaml:"neynar"`
	Vercel VercelConfig `yaml:"vercel"`

	// Per call site polling overrides. Unset fields keep the preset values.
	Signer     PollConfig `yaml:"signer"`
	Deployment PollConfig `yaml:"deployment"`
	Login      PollConfig `yaml:"login"`
}

// NeynarConfig configures the signer status source.
type NeynarConfig struct {
	// APIURL defaults to [DefaultNeynarURL].
	APIURL string `yaml:"api_url"`

	// APIKey supports ${VAR} substitution and falls back to NEYNAR_API_KEY.
	APIKey string `yaml:"api_key"`
}

// VercelConfig configures the deployment and login status sources.
type VercelConfig struct {
	// APIURL defaults to [DefaultVercelURL].
	APIURL string `yaml:"api_url"`

	// Token falls back to VERCEL_TOKEN.
	Token string `yaml:"token"`

	// TeamID falls back to VERCEL_TEAM_ID.
	TeamID string `yaml:"team_id"`

	// ProjectID falls back to VERCEL_PROJECT_ID.
	ProjectID string `yaml:"project_id"`
}

// PollConfig overrides the polling policy of one call site.
type PollConfig struct {
	// Interval between checks. Zero keeps the preset interval.
	Interval Duration `yaml:"interval"`

	// Timeout is the wall-clock budget. Nil keeps the preset timeout;
	// 0 disables it.
	Timeout *Duration `yaml:"timeout"`

	// MaxConsecutiveErrors is the retry budget. Nil keeps the preset
	// budget; 0 retries transient errors until the timeout.
	MaxConsecutiveErrors *int `yaml:"max_consecutive_errors"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part, non-empty when a default was given
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in string values are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in API URLs and credentials.
// API URLs default to the public hosts.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Neynar.APIURL == "" {
		c.Neynar.APIURL = DefaultNeynarURL
	}
	if c.Vercel.APIURL == "" {
		c.Vercel.APIURL = DefaultVercelURL
	}
}

// expand substitutes environment variables in every string field that
// may carry one.
func (c *Config) expand() error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"neynar.api_url", &c.Neynar.APIURL},
		{"neynar.api_key", &c.Neynar.APIKey},
		{"vercel.api_url", &c.Vercel.APIURL},
		{"vercel.token", &c.Vercel.Token},
		{"vercel.team_id", &c.Vercel.TeamID},
		{"vercel.project_id", &c.Vercel.ProjectID},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = expanded
	}
	return nil
}

func (c *Config) validate() error {
	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	if err := validateURL("neynar.api_url", c.Neynar.APIURL); err != nil {
		return err
	}
	if err := validateURL("vercel.api_url", c.Vercel.APIURL); err != nil {
		return err
	}

	polls := []struct {
		name string
		cfg  PollConfig
	}{
		{"signer", c.Signer},
		{"deployment", c.Deployment},
		{"login", c.Login},
	}
	for _, p := range polls {
		if err := p.cfg.validate(p.name); err != nil {
			return err
		}
	}
	return nil
}

func (p PollConfig) validate(name string) error {
	if p.Interval != 0 && p.Interval.Duration() < minInterval {
		return fmt.Errorf("%s.interval must be at least %s, got %s", name, minInterval, p.Interval.Duration())
	}
	if p.Timeout != nil && p.Timeout.Duration() < 0 {
		return fmt.Errorf("%s.timeout cannot be negative, got %s", name, p.Timeout.Duration())
	}
	if p.MaxConsecutiveErrors != nil && *p.MaxConsecutiveErrors < 0 {
		return fmt.Errorf("%s.max_consecutive_errors cannot be negative, got %d", name, *p.MaxConsecutiveErrors)
	}
	return nil
}

func validateURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", name, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: url must have a host", name)
	}
	return nil
}
