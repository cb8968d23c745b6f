package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdgraph/internal/config"
	"github.com/matzehuels/mdgraph/pkg/buildinfo"
	"github.com/matzehuels/mdgraph/pkg/cache"
	"github.com/matzehuels/mdgraph/pkg/errors"
	"github.com/matzehuels/mdgraph/pkg/pipeline"
	"github.com/matzehuels/mdgraph/pkg/render"
)

// appName is used for the command name and config/cache directories.
const appName = "mdgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the default lookup.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// convertFlags are the root command's flags. Only flags set explicitly
// override the config file.
type convertFlags struct {
	output     string
	format     string
	renderer   string
	engine     string
	binary     string
	imageDir   string
	linkPrefix string
	jobs       int
	timeout    time.Duration
	html       bool
	dryRun     bool
	noCache    bool
	progress   bool
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself converts a document.
func (c *CLI) RootCommand() *cobra.Command {
	var f convertFlags

	root := &cobra.Command{
		Use:   appName + " [flags] <input>",
		Short: "mdgraph renders graph blocks in markdown to images",
		Long: `mdgraph finds every ` + "```graph" + ` fenced block in a markdown document,
renders it with Graphviz, and writes a copy of the document in which each
block is replaced by a link to its image (graph_000.svg, graph_001.svg, ...).`,
		Example: `  mdgraph README.md
  mdgraph docs/design.md -o docs/_index.md --image-dir docs/img --link-prefix img
  mdgraph README.md --renderer embedded --format png --jobs 4`,
		Version:      buildinfo.Version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], f)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default .mdgraph.toml or ~/.config/mdgraph/config.toml)")

	flags := root.Flags()
	flags.StringVarP(&f.output, "output", "o", pipeline.DefaultOutput, "output document")
	flags.StringVar(&f.format, "format", render.DefaultFormat, "image format: svg, png")
	flags.StringVar(&f.renderer, "renderer", render.KindExec, "renderer: exec (Graphviz binary), embedded (in-process)")
	flags.StringVar(&f.engine, "engine", render.DefaultEngine, "layout engine: dot, neato, fdp, sfdp, circo, twopi, osage, patchwork")
	flags.StringVar(&f.binary, "dot", render.DefaultBinary, "Graphviz binary for the exec renderer")
	flags.StringVar(&f.imageDir, "image-dir", pipeline.DefaultImageDir, "directory for generated images")
	flags.StringVar(&f.linkPrefix, "link-prefix", "", "path prepended to image links in the output")
	flags.IntVarP(&f.jobs, "jobs", "j", pipeline.DefaultJobs, "blocks rendered in parallel")
	flags.DurationVar(&f.timeout, "timeout", 0, "per-graph render timeout (0 = none)")
	flags.BoolVar(&f.html, "html", false, "also write an HTML preview of the output")
	flags.BoolVar(&f.dryRun, "dry-run", false, "list blocks and image names without rendering")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable the render cache")
	flags.BoolVar(&f.progress, "progress", false, "show a live progress bar")

	registerCompletions(root)

	list := c.listCommand()
	registerCompletions(list)

	root.AddCommand(list)
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Settings
// =============================================================================

// loadConfig reads the config file and applies explicitly set flags.
func (c *CLI) loadConfig(cmd *cobra.Command, f convertFlags) (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}

	set := cmd.Flags().Changed
	if set("format") {
		cfg.Render.Format = f.format
	}
	if set("renderer") {
		cfg.Render.Renderer = f.renderer
	}
	if set("engine") {
		cfg.Render.Engine = f.engine
	}
	if set("dot") {
		cfg.Render.Binary = f.binary
	}
	if set("image-dir") {
		cfg.Render.ImageDir = f.imageDir
	}
	if set("link-prefix") {
		cfg.Render.LinkPrefix = f.linkPrefix
	}
	if set("jobs") {
		cfg.Render.Jobs = f.jobs
	}
	if set("timeout") {
		cfg.Render.Timeout.Duration = f.timeout
	}
	if set("no-cache") && f.noCache {
		cfg.Cache.Enabled = false
	}

	return cfg, cfg.Validate()
}

// pipelineOptions builds run options for input from cfg.
func pipelineOptions(cfg config.Config, input, output string) pipeline.Options {
	return pipeline.Options{
		Input:      input,
		Output:     output,
		ImageDir:   cfg.Render.ImageDir,
		LinkPrefix: cfg.Render.LinkPrefix,
		Format:     cfg.Render.Format,
		Markers:    cfg.MarkerSet(),
		Jobs:       cfg.Render.Jobs,
	}
}

// =============================================================================
// Renderer Factory
// =============================================================================

// newRenderer builds the configured renderer, wrapped in the render cache
// unless caching is disabled. The returned cache must be closed.
func newRenderer(ctx context.Context, cfg config.Config) (render.Renderer, cache.Cache, error) {
	opts := cfg.RenderOptions()
	inner, err := render.New(opts)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return inner, cache.NewNullCache(), nil
	}

	store, err := newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	keyer := cache.NewDefaultKeyer()
	if cfg.Cache.Namespace != "" {
		keyer = cache.NewScopedKeyer(keyer, "mdgraph:"+cfg.Cache.Namespace+":")
	}
	cached := render.NewCached(inner, store, keyer, opts)
	if cfg.Cache.TTL.Duration > 0 {
		cached.TTL = cfg.Cache.TTL.Duration
	}
	return cached, store, nil
}

// newCache opens the configured cache backend. An unreachable redis server
// only disables caching.
func newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	logger := loggerFromContext(ctx)

	switch cfg.Cache.Backend {
	case config.BackendRedis:
		store, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("render cache disabled", "backend", "redis", "err", err)
			return cache.NewNullCache(), nil
		}
		logger.Debug("render cache", "backend", "redis")
		return store, nil
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		store, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		logger.Debug("render cache", "backend", "file", "dir", dir)
		return store, nil
	}
}

// ErrorLine formats a command error for the terminal: the message without
// code prefixes, tagged with its error code when it has one.
func ErrorLine(err error) string {
	msg := errors.UserMessage(err)
	if code := errors.GetCode(err); code != "" {
		return msg + " [" + string(code) + "]"
	}
	return msg
}
