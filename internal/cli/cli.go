// Package cli implements the wikiviewer command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wikiviewer/pkg/buildinfo"
	"github.com/matzehuels/wikiviewer/pkg/cache"
	"github.com/matzehuels/wikiviewer/pkg/config"
	"github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
	"github.com/matzehuels/wikiviewer/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "wikiviewer"

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

	verbose    bool
	configPath string
	endpoint   string
	noCache    bool

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Search and browse Wikipedia from the terminal",
		Long:         `Wikiviewer searches Wikipedia, resolves every hit to its canonical URL, and shows random articles. It also serves the same results as a JSON API for browser widgets.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			observability.SetSearchHooks(&logHooks{logger: c.Logger})
			observability.SetHTTPHooks(&logHooks{logger: c.Logger})
			observability.SetCacheHooks(&logHooks{logger: c.Logger})
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&c.endpoint, "endpoint", "", "Wikipedia API endpoint")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the response cache")

	// Register all subcommands
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.randomCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Client Factory
// =============================================================================

// loadConfig loads the configuration once and applies command-line overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.endpoint != "" {
		cfg.Endpoint = c.endpoint
	}
	if c.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newClient creates a Wikipedia client from the configuration. The caller
// must close the returned cache.
func (c *CLI) newClient(ctx context.Context, strict bool) (*wikipedia.Client, cache.Cache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	backend, err := newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	client := wikipedia.NewClient(backend, wikipedia.Options{
		Endpoint:     cfg.Endpoint,
		ExtractChars: cfg.ExtractChars,
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout.Duration,
		Retries:      cfg.Retries,
		CacheTTL:     cfg.Cache.TTL.Duration,
		Strict:       strict || cfg.Strict,
		Logger:       loggerFromContext(ctx),
	})
	if cfg.Cache.Backend == config.CacheRedis {
		// A shared redis instance may hold other applications' keys.
		client.SetKeyer(cache.NewScopedKeyer(cache.NewDefaultKeyer(), appName+":"))
	}
	return client, backend, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheFile:
		fc, err := cache.NewFileCache(cfg.CachePath())
		if err != nil {
			return nil, fmt.Errorf("open file cache: %w", err)
		}
		return fc, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		return cache.NewNullCache(), nil
	}
}
