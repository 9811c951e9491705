package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/depmap/pkg/buildinfo"
	"github.com/matzehuels/depmap/pkg/cache"
	"github.com/matzehuels/depmap/pkg/depgraph"
	"github.com/matzehuels/depmap/pkg/errors"
	"github.com/matzehuels/depmap/pkg/scanner"
	"github.com/matzehuels/depmap/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "depmap"

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
	Config *Config

	configPath string
	aports     string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Config: DefaultConfig()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "depmap maps dependencies between Alpine packages",
		Long: `depmap scans an aports checkout, parses every APKBUILD and builds the
dependency graph between packages. The graph can be queried, analysed,
rendered with Graphviz, browsed in the terminal or served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/depmap/config.toml)")
	flags.StringVar(&c.aports, "aports", "", "path to the aports checkout")

	root.AddCommand(c.scanCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.rdepsCommand())
	root.AddCommand(c.pathCommand())
	root.AddCommand(c.cyclesCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.reportCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.aports != "" {
		cfg.Aports = c.aports
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Backends
// =============================================================================

// newCache opens the configured parse cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		return cache.NewRedisCache(ctx, c.Config.Cache.RedisAddr)
	}
	dir, err := c.Config.CacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the configured snapshot store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if c.Config.Store.Backend == backendMongo {
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:        c.Config.Store.MongoURI,
			Database:   c.Config.Store.Database,
			Collection: c.Config.Store.Collection,
		})
	}
	path, err := c.Config.SnapshotPath()
	if err != nil {
		return nil, fmt.Errorf("locate snapshot: %w", err)
	}
	return store.NewFileStore(path), nil
}

// loadSnapshot reads the last saved scan.
func (c *CLI) loadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	snap, err := st.Load(ctx)
	if stderrors.Is(err, store.ErrNoSnapshot) {
		return nil, errors.New(errors.ErrCodeNotFound, "no saved scan; run `%s scan` first", appName)
	}
	return snap, err
}

// loadGraph builds the graph of the last saved scan and reports alias
// conflicts found while resolving it.
func (c *CLI) loadGraph(ctx context.Context) (*depgraph.Graph, error) {
	snap, err := c.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	prog := newProgress(c.Logger)
	g := depgraph.New(snap.Packages)
	for _, cf := range g.Index().Conflicts() {
		c.Logger.Warn("alias claimed by several packages",
			"alias", cf.Alias, "kind", cf.Kind, "owners", cf.Owners, "winner", cf.Winner)
	}
	c.Logger.Debug("graph loaded", "snapshot", snap.ID, "created", snap.CreatedAt.Format("2006-01-02 15:04"))
	prog.done(fmt.Sprintf("Loaded %d packages, %d edges", g.NodeCount(), g.EdgeCount()))
	return g, nil
}

// scanOptions merges flags into the configured scan settings.
func (c *CLI) scanOptions(repos []string, workers int) scanner.Options {
	opts := scanner.Options{
		Repos:    c.Config.Repos,
		Workers:  c.Config.Workers,
		CacheTTL: c.Config.Cache.TTL.Duration,
	}
	if len(repos) > 0 {
		opts.Repos = repos
	}
	if workers > 0 {
		opts.Workers = workers
	}
	return opts
}

// requireAports returns the configured aports root.
func (c *CLI) requireAports() (string, error) {
	if c.Config.Aports == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no aports checkout configured; pass --aports or set aports in the config file")
	}
	return c.Config.Aports, nil
}
