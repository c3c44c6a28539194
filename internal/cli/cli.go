// Package cli implements the comictools command-line interface.
//
// Commands log through a charmbracelet logger that is also attached to the
// command context, so helpers deeper in a command can reach it with
// loggerFromContext. --verbose switches the level from info to debug.
//
// # Commands
//
//   - bleed: grow the canvas and mirror edge pixels into the new margins
//   - ocr: replace lettering with fitted, editable text layers
//   - upscale: enlarge pixel layers with Real-ESRGAN or the built-in scaler
//   - new, export: convert between PNG pages and layered documents
//   - tree: draw the layer tree as DOT, SVG, PNG or PDF
//   - config, cache, serve, completion: housekeeping and the HTTP API
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comictools/pkg/buildinfo"
	"github.com/matzehuels/comictools/pkg/cache"
	"github.com/matzehuels/comictools/pkg/config"
	"github.com/matzehuels/comictools/pkg/observability"
	"github.com/matzehuels/comictools/pkg/ocr"
	"github.com/matzehuels/comictools/pkg/pipeline"
	"github.com/matzehuels/comictools/pkg/render"
	"github.com/matzehuels/comictools/pkg/upscale"
)

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
	Config config.Config

	configPath string
	verbose    bool
	noCache    bool
}

// New creates a new CLI instance with a default logger and the built-in
// configuration. The config file is read when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "comictools",
		Short: "Comictools prepares comic pages for print and translation",
		Long: `Comictools edits layered comic pages: it adds mirrored print bleed,
replaces lettering with editable text layers via OCR, and upscales artwork.

Documents are read as layered JSON or flat PNG and written back in the format
given by the output file extension.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/comictools/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the result cache")

	root.AddCommand(c.bleedCommand())
	root.AddCommand(c.ocrCommand())
	root.AddCommand(c.upscaleCommand())
	root.AddCommand(c.newCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// skipConfig is the annotation of commands that must run without reading
// the config file.
const skipConfig = "skip-config"

// setup runs before every command: it applies --verbose, loads the config
// file and routes observability events to the logger.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}

	if cmd.Annotations[skipConfig] == "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.Config = cfg
	}

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetOperationHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetToolHooks(hooks)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx)
	if err != nil {
		return nil, err
	}

	var keyer cache.Keyer
	if c.Config.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Config.Cache.Prefix)
	}

	runner := pipeline.NewRunner(ch, keyer, c.Logger)
	runner.OCRTTL = c.Config.Cache.OCRTTL
	runner.UpscaleTTL = c.Config.Cache.UpscaleTTL
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Config.Cache.RedisAddr,
			Password: c.Config.Cache.RedisPassword,
			DB:       c.Config.Cache.RedisDB,
		})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Engines
// =============================================================================

// ocrEngine resolves an OCR engine by name; empty uses the configured one.
func (c *CLI) ocrEngine(name string) (ocr.Engine, error) {
	if name == "" {
		name = c.Config.OCR.Engine
	}
	return ocr.NewEngine(name, c.Config.Tools.Tesseract)
}

// upscaleEngine resolves an upscale engine by name; empty values use the
// configured engine and model.
func (c *CLI) upscaleEngine(name, model string) (upscale.Engine, error) {
	if name == "" {
		name = c.Config.Upscale.Engine
	}
	if model == "" {
		model = c.Config.Upscale.Model
	}
	return upscale.NewEngine(name, c.Config.Tools.RealESRGAN, model)
}

func (c *CLI) converter() render.Converter {
	return render.Converter{Path: c.Config.Tools.RSVGConvert}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// default (~/.cache/comictools/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.DefaultCacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// override returns flag when the user set it on the command line and def
// otherwise.
func override[T any](cmd *cobra.Command, name string, flag, def T) T {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return def
}
