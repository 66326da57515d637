package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/matzehuels/archflow/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARCHFLOW_"

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are named) into the process environment. Variables already set are not
// overwritten and missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "load %s", f)
		}
	}
	return nil
}

// ReadDotEnv parses a .env file without touching the environment.
func ReadDotEnv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read %s", path)
	}
	return m, nil
}

type envVar struct {
	name  string
	apply func(c *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error { *dst(c) = v; return nil }
}

func float(name string, dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.New(errors.ErrCodeInvalidOption, "%s%s: %q is not a number", EnvPrefix, name, v)
		}
		*dst(c) = f
		return nil
	}
}

func boolean(name string, dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.New(errors.ErrCodeInvalidOption, "%s%s: %q is not a boolean", EnvPrefix, name, v)
		}
		*dst(c) = b
		return nil
	}
}

var envVars = []envVar{
	{"STRATEGY", str(func(c *Config) *string { return &c.Layout.Strategy })},
	{"RANKDIR", str(func(c *Config) *string { return &c.Layout.Rankdir })},
	{"NODESEP", float("NODESEP", func(c *Config) *float64 { return &c.Layout.Nodesep })},
	{"RANKSEP", float("RANKSEP", func(c *Config) *float64 { return &c.Layout.Ranksep })},
	{"EDGESEP", float("EDGESEP", func(c *Config) *float64 { return &c.Layout.Edgesep })},
	{"DENSITY", str(func(c *Config) *string { return &c.Layout.Density })},
	{"UI_SCALE", float("UI_SCALE", func(c *Config) *float64 { return &c.Layout.UIScale })},
	{"STRICT", boolean("STRICT", func(c *Config) *bool { return &c.Layout.Strict })},
	{"PADDING", float("PADDING", func(c *Config) *float64 { return &c.Viewport.Padding })},
	{"MIN_SCALE", float("MIN_SCALE", func(c *Config) *float64 { return &c.Viewport.FitMinScale })},
	{"MAX_SCALE", float("MAX_SCALE", func(c *Config) *float64 { return &c.Viewport.FitMaxScale })},
	{"NO_CACHE", boolean("NO_CACHE", func(c *Config) *bool { return &c.Cache.Disabled })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"CACHE_PREFIX", str(func(c *Config) *string { return &c.Cache.Prefix })},
	{"ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
}

// ApplyEnv overrides settings from ARCHFLOW_* variables found by lookup
// (usually [os.LookupEnv]). Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok || v == "" {
			continue
		}
		if err := ev.apply(c, v); err != nil {
			return err
		}
	}
	return nil
}

// EnvNames lists the recognized environment variables.
func EnvNames() []string {
	names := make([]string, len(envVars))
	for i, ev := range envVars {
		names[i] = EnvPrefix + ev.name
	}
	return names
}

// Resolve runs the full chain short of flags: defaults, the config file,
// .env and the environment.
func Resolve(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
