// Package config loads expectedfreq settings.
//
// Settings come from three layers, later ones winning:
//
//  1. A config file, TOML or YAML by extension (optional)
//  2. A .env file in the working directory (optional)
//  3. EXPECTEDFREQ_* environment variables
//
// A minimal TOML file:
//
//	log_level = "debug"
//
//	[pipeline]
//	population_size = 1000
//	plot_text = true
//
//	[pipeline.description]
//	population_name = "adults"
//
//	[cache]
//	url = "redis://localhost:6379/0"
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/expectedfreq/pkg/errors"
	"github.com/matzehuels/expectedfreq/pkg/pipeline"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EXPECTEDFREQ_"

// DefaultEnvFile is read from the working directory when present.
const DefaultEnvFile = ".env"

// DefaultAddr is the HTTP listen address for serve.
const DefaultAddr = ":8080"

// Config is the complete application configuration.
type Config struct {
	LogLevel string           `toml:"log_level" yaml:"log_level"`
	Pipeline pipeline.Options `toml:"pipeline" yaml:"pipeline"`
	Cache    CacheConfig      `toml:"cache" yaml:"cache"`
	Server   ServerConfig     `toml:"server" yaml:"server"`
}

// CacheConfig selects the artifact cache backend. A URL selects Redis,
// otherwise entries are kept under Dir.
type CacheConfig struct {
	Disabled bool   `toml:"disabled" yaml:"disabled"`
	Dir      string `toml:"dir" yaml:"dir"`
	URL      string `toml:"url" yaml:"url"`
	Prefix   string `toml:"prefix" yaml:"prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string   `toml:"addr" yaml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins" yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr:           DefaultAddr,
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load reads the config file at path (empty for none), then applies .env
// and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	return load(path, DefaultEnvFile, os.LookupEnv)
}

func load(path, envFile string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	env, err := dotenv(envFile)
	if err != nil {
		return nil, err
	}
	get := func(name string) (string, bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			return v, true
		}
		v, ok := env[EnvPrefix+name]
		return v, ok
	}
	if err := cfg.applyEnv(get); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unsupported config extension %q (use .toml, .yaml, or .yml)", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	return nil
}

// dotenv reads key/value pairs from path without touching the process
// environment. A missing file yields no values.
func dotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return env, nil
}

func (c *Config) applyEnv(get func(string) (string, bool)) error {
	if v, ok := get("POPULATION_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New(errors.ErrCodeInvalidConfig, "%sPOPULATION_SIZE must be an integer, got %q", EnvPrefix, v)
		}
		c.Pipeline.PopulationSize = n
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("CACHE_URL"); ok {
		c.Cache.URL = v
	}
	if v, ok := get("CACHE_DIR"); ok {
		c.Cache.Dir = v
	}
	if v, ok := get("ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid log level %q", c.LogLevel)
	}
	if u := c.Cache.URL; u != "" && !strings.HasPrefix(u, "redis://") && !strings.HasPrefix(u, "rediss://") {
		return errors.New(errors.ErrCodeInvalidConfig, "cache url must use redis:// or rediss://, got %q", u)
	}
	opts := c.PipelineOptions()
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "pipeline")
	}
	return nil
}

// Level returns the configured log level, info when unparsable.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// PipelineOptions returns a copy of the pipeline defaults from the config.
func (c *Config) PipelineOptions() pipeline.Options {
	opts := c.Pipeline
	opts.Formats = append([]string(nil), c.Pipeline.Formats...)
	opts.Plot.Title = append([]string(nil), c.Pipeline.Plot.Title...)
	return opts
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
