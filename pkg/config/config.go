// Package config loads archflow settings.
//
// Settings are layered, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (archflow.toml in the XDG config directory, or --config)
//  3. a .env file in the working directory
//  4. ARCHFLOW_* environment variables
//  5. command-line flags, applied by the CLI
//
// Example archflow.toml:
//
//	[layout]
//	rankdir = "LR"
//	density = "compact"
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/archflow/pkg/errors"
	"github.com/matzehuels/archflow/pkg/pipeline"
	"github.com/matzehuels/archflow/pkg/viewport"
)

const (
	// AppName names the config and cache directories.
	AppName = "archflow"

	// FileName is the config file looked up in the config directory.
	FileName = "archflow.toml"

	// DefaultAddr is the HTTP listen address.
	DefaultAddr = ":8080"
)

// Config is the complete settings tree.
type Config struct {
	Layout   Layout   `toml:"layout"`
	Viewport Viewport `toml:"viewport"`
	Cache    Cache    `toml:"cache"`
	Server   Server   `toml:"server"`
}

// Layout mirrors [pipeline.Options].
type Layout struct {
	Strategy string  `toml:"strategy"`
	Rankdir  string  `toml:"rankdir"`
	Nodesep  float64 `toml:"nodesep"`
	Ranksep  float64 `toml:"ranksep"`
	Edgesep  float64 `toml:"edgesep"`
	Density  string  `toml:"density"`
	UIScale  float64 `toml:"ui_scale"`
	Strict   bool    `toml:"strict"`
}

// Viewport holds the fit and zoom limits.
type Viewport struct {
	Padding      float64 `toml:"padding"`
	FitMinScale  float64 `toml:"fit_min_scale"`
	FitMaxScale  float64 `toml:"fit_max_scale"`
	ZoomMinScale float64 `toml:"zoom_min_scale"`
	ZoomMaxScale float64 `toml:"zoom_max_scale"`
}

// Cache selects the layout cache backend. RedisURL wins over Dir.
type Cache struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// Server configures archflow serve.
type Server struct {
	Addr string `toml:"addr"`
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Layout: Layout{
			Strategy: pipeline.DefaultStrategy,
			UIScale:  pipeline.DefaultUIScale,
		},
		Viewport: Viewport{
			Padding:      viewport.DefaultPadding,
			FitMinScale:  viewport.DefaultFitMinScale,
			FitMaxScale:  viewport.DefaultFitMaxScale,
			ZoomMinScale: viewport.DefaultZoomMinScale,
			ZoomMaxScale: viewport.DefaultZoomMaxScale,
		},
		Server: Server{
			Addr:         DefaultAddr,
			MaxBodyBytes: 4 << 20,
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the config file at path on top of the defaults. An empty path
// looks in [DefaultPath] and tolerates a missing file; an explicit path must
// exist. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.New(errors.ErrCodeInvalidFormat,
			"config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Parse decodes TOML text on top of the defaults.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/archflow/archflow.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, FileName), nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/archflow, falling back to
// ~/.cache.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// =============================================================================
// Conversion
// =============================================================================

// Validate checks the settings that the pipeline does not validate itself.
func (c Config) Validate() error {
	if err := errors.ValidateNonNegative("padding", c.Viewport.Padding); err != nil {
		return err
	}
	if err := errors.ValidateScaleRange(c.Viewport.FitMinScale, c.Viewport.FitMaxScale); err != nil {
		return err
	}
	if err := errors.ValidateScaleRange(c.Viewport.ZoomMinScale, c.Viewport.ZoomMaxScale); err != nil {
		return err
	}
	opts := c.PipelineOptions()
	return opts.ValidateAndSetDefaults()
}

// PipelineOptions converts the layout section.
func (c Config) PipelineOptions() pipeline.Options {
	l := c.Layout
	return pipeline.Options{
		Strategy: l.Strategy,
		Rankdir:  l.Rankdir,
		Nodesep:  l.Nodesep,
		Ranksep:  l.Ranksep,
		Edgesep:  l.Edgesep,
		Density:  l.Density,
		UIScale:  l.UIScale,
		Strict:   l.Strict,
	}
}

// FitOptions converts the fit limits. The chip function is left for the
// caller.
func (c Config) FitOptions() viewport.FitOptions {
	return viewport.FitOptions{
		Padding:  c.Viewport.Padding,
		MinScale: c.Viewport.FitMinScale,
		MaxScale: c.Viewport.FitMaxScale,
	}
}

// ZoomOptions converts the zoom limits.
func (c Config) ZoomOptions() viewport.ZoomOptions {
	return viewport.ZoomOptions{
		MinScale: c.Viewport.ZoomMinScale,
		MaxScale: c.Viewport.ZoomMaxScale,
	}
}
