// Package config loads the slingql server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/Protocol-Lattice/slingql/namespace"
	"github.com/Protocol-Lattice/slingql/resolve"
)

// FileName is the config file looked for in the working directory.
const FileName = "slingql.yaml"

// Config is the server configuration.
type Config struct {
	Listen           string         `yaml:"listen"`
	Schema           string         `yaml:"schema"`
	LogLevel         string         `yaml:"logLevel"`
	Namespace        namespace.Rule `yaml:"namespace"`
	ValidateFallback bool           `yaml:"validateFallback"`
	Scripts          []string       `yaml:"scripts"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		Schema:    "schema.graphql",
		LogLevel:  "info",
		Namespace: namespace.DefaultRule,
	}
}

// Load reads path over the defaults, then applies SLINGQL_* environment
// overrides. A missing file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and applies environment overrides.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	applyEnvOverrides(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyEnvOverrides lets SLINGQL_ prefixed variables override common settings.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("SLINGQL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SLINGQL_SCHEMA"); v != "" {
		c.Schema = v
	}
	if v := os.Getenv("SLINGQL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SLINGQL_VALIDATE_FALLBACK"); v != "" {
		c.ValidateFallback = strings.ToLower(v) == "true" || v == "1"
	}
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Listen == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.Schema == "" {
		errs = append(errs, errors.New("schema path is empty"))
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if err := c.Namespace.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, s := range c.Scripts {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, errors.New("empty script pattern"))
			break
		}
	}
	return errors.Join(errs...)
}

// ResolveOptions returns the resolver options the configuration implies.
func (c *Config) ResolveOptions() []resolve.Option {
	return []resolve.Option{
		resolve.WithRule(c.Namespace),
		resolve.WithFallbackValidation(c.ValidateFallback),
	}
}
