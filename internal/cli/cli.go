// Package cli implements the emergence command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/buildinfo"
	"github.com/matzehuels/emergence/pkg/cache"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "emergence"

	// defaultTickLimit bounds --until-steady runs.
	defaultTickLimit = 5000
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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the simulation
// hooks are routed to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		observability.SetSimulationHooks(observability.NewLogHooks(c.Logger))
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Emergence grows nested clusters of particles",
		Long:         `Emergence simulates a tree of entities that assemble themselves bottom-up: particles bond into rings, rings bond into larger rings, and every cluster is drawn as a smooth blob you can drill into.`,
		Version:      buildinfo.Read().Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// =============================================================================
// Config Flags
// =============================================================================

// configFlags are the flags shared by every command that builds a
// simulation. Flags override values loaded from --config.
type configFlags struct {
	path      string
	counts    string
	seed      int64
	radius    float64
	relations bool
	particles bool
}

func (f *configFlags) bind(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().StringVarP(&f.path, "config", "c", "", "config file (.toml, .yaml)")
	cmd.Flags().StringVar(&f.counts, "counts", "", "uniform branching per level, e.g. 3,3,3")
	cmd.Flags().Int64Var(&f.seed, "seed", d.Seed, "random seed")
	cmd.Flags().Float64Var(&f.radius, "radius", d.Radius, "root entity radius")
	cmd.Flags().BoolVar(&f.relations, "relations", d.ShowRelations, "animate relation edges")
	cmd.Flags().BoolVar(&f.particles, "particles", d.ShowParticles, "draw particles")
}

// load resolves the effective config: defaults, then the file, then any
// flag the user set explicitly.
func (f *configFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.path != "" {
		loaded, err := config.Load(f.path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("counts") {
		counts, err := parseCounts(f.counts)
		if err != nil {
			return cfg, err
		}
		cfg.EntityCounts = counts
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if flags.Changed("radius") {
		cfg.Radius = f.radius
	}
	if flags.Changed("relations") {
		cfg.ShowRelations = f.relations
	}
	if flags.Changed("particles") {
		cfg.ShowParticles = f.particles
	}
	return cfg, cfg.Validate()
}

// parseCounts parses "3,3,3" into uniform branching.
func parseCounts(s string) (config.Counts, error) {
	var levels []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return config.Counts{}, fmt.Errorf("invalid --counts %q: %w", s, err)
		}
		levels = append(levels, n)
	}
	counts := config.Uniform(levels...)
	return counts, counts.Validate()
}

// =============================================================================
// Cache Factory
// =============================================================================

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Instrument(c, "artifact"), nil
}

// configHash identifies cfg for cache keys.
func configHash(cfg config.Config) (string, error) {
	data, err := cfg.Encode()
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/emergence/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
