// Package config loads mdgraph settings from a TOML file.
//
// Settings are resolved in order: built-in defaults, then the config file,
// then command-line flags (applied by the CLI). The file is looked up at:
//
//  1. the path given with --config
//  2. .mdgraph.toml in the working directory
//  3. $XDG_CONFIG_HOME/mdgraph/config.toml (~/.config/mdgraph/config.toml)
//
// A missing file is not an error; an unreadable or invalid one is.
//
// Example:
//
//	[markers]
//	opener = "```graph"
//	closer = "```"
//
//	[render]
//	renderer = "exec"
//	binary = "/usr/local/bin/dot"
//	engine = "dot"
//	format = "svg"
//	timeout = "30s"
//	jobs = 4
//	image_dir = "img"
//	link_prefix = "img"
//
//	[cache]
//	enabled = true
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	namespace = "docs"
//	ttl = "720h"
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mdgraph/pkg/errors"
	"github.com/matzehuels/mdgraph/pkg/markdown"
	"github.com/matzehuels/mdgraph/pkg/render"
)

const (
	// LocalFile is the per-project config file name.
	LocalFile = ".mdgraph.toml"

	appName = "mdgraph"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Duration is a time.Duration read from a TOML string such as "30s".
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

// Config is the full configuration.
type Config struct {
	Markers Markers `toml:"markers"`
	Render  Render  `toml:"render"`
	Cache   Cache   `toml:"cache"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Markers configures block delimiters.
type Markers struct {
	Opener string `toml:"opener"`
	Closer string `toml:"closer"`
}

// Render configures the renderer and where images go.
type Render struct {
	Renderer   string   `toml:"renderer"`
	Binary     string   `toml:"binary"`
	Engine     string   `toml:"engine"`
	Format     string   `toml:"format"`
	Timeout    Duration `toml:"timeout"`
	Jobs       int      `toml:"jobs"`
	ImageDir   string   `toml:"image_dir"`
	LinkPrefix string   `toml:"link_prefix"`
}

// Cache configures the render cache.
type Cache struct {
	Enabled   bool     `toml:"enabled"`
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisURL  string   `toml:"redis_url"`
	Namespace string   `toml:"namespace"`
	TTL       Duration `toml:"ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Markers: Markers{
			Opener: markdown.DefaultOpener,
			Closer: markdown.DefaultCloser,
		},
		Render: Render{
			Renderer: render.KindExec,
			Binary:   render.DefaultBinary,
			Engine:   render.DefaultEngine,
			Format:   render.DefaultFormat,
			Jobs:     1,
		},
		Cache: Cache{
			Enabled: true,
			Backend: BackendFile,
			TTL:     Duration{30 * 24 * time.Hour},
		},
	}
}

// Load reads the config file at path, or the first file found in the
// default locations when path is empty. Values absent from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = find()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, errors.Wrap(errors.ErrCodeIO, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.MarkerSet().Validate(); err != nil {
		return err
	}
	if err := c.RenderOptions().Validate(); err != nil {
		return err
	}
	if c.Render.Jobs < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "render.jobs cannot be negative")
	}
	if err := errors.ValidateLinkPrefix(c.Render.LinkPrefix); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Cache.Enabled && c.Cache.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend: %q (must be 'file' or 'redis')", c.Cache.Backend)
	}
	return nil
}

// MarkerSet returns the configured markers.
func (c Config) MarkerSet() markdown.Markers {
	return markdown.Markers{Opener: c.Markers.Opener, Closer: c.Markers.Closer}
}

// RenderOptions returns the configured renderer options.
func (c Config) RenderOptions() render.Options {
	return render.Options{
		Kind:    c.Render.Renderer,
		Binary:  c.Render.Binary,
		Engine:  c.Render.Engine,
		Format:  c.Render.Format,
		Timeout: c.Render.Timeout.Duration,
	}
}

// find returns the first existing config file in the default locations.
func find() string {
	candidates := []string{LocalFile}
	if dir, err := Dir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "config.toml"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Dir returns the user config directory (~/.config/mdgraph).
func Dir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// CacheDir returns the render cache directory: cache.dir if set, else
// $XDG_CACHE_HOME/mdgraph or ~/.cache/mdgraph.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
