package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/cache"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/render/dot"
)

// treeOpts holds the command-line flags for the tree command.
type treeOpts struct {
	run       runOpts
	output    string
	format    string // dot or svg
	detailed  bool
	joints    bool
	relations bool
	maxDepth  int
	noCache   bool
}

// treeCommand creates the tree command that exports the entity hierarchy.
func (c *CLI) treeCommand() *cobra.Command {
	var cf configFlags
	opts := treeOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Export the entity tree as a Graphviz diagram",
		Long: `Export the entity tree as DOT or as SVG rendered by Graphviz.

Without --ticks the diagram shows the tree as built. Joints and relations
only exist once the simulation has run, so combine --joints or --relations
with --ticks or --until-steady.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatDOT, formatSVG); err != nil {
				return err
			}
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			return c.runTree(cmd.Context(), cfg, opts)
		},
	}

	cf.bind(cmd)
	opts.run.bind(cmd, 0)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default emergence-tree.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show depth, radius and counts")
	cmd.Flags().BoolVar(&opts.joints, "joints", false, "draw joints between particles")
	cmd.Flags().BoolVar(&opts.relations, "relations-edges", false, "draw relation edges")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "deepest level to draw (0 for all)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runTree(ctx context.Context, cfg config.Config, opts treeOpts) error {
	store, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	hash, err := configHash(cfg)
	if err != nil {
		return err
	}
	// Joints and relations depend on how far the run went.
	variant := fmt.Sprintf("%s:%s:%d:%t:%d:%t:%t:%d",
		hash, opts.run.mode, opts.run.ticks, opts.run.untilSteady, opts.run.limit,
		opts.joints, opts.relations, opts.maxDepth)
	key := cache.NewDefaultKeyer().TreeKey(variant, cache.TreeKeyOpts{
		Format:   opts.format,
		Detailed: opts.detailed,
	})

	output := opts.output
	if output == "" {
		output = appName + "-tree." + opts.format
	}

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		if err := writeOutput(output, data); err != nil {
			return err
		}
		printSuccess("Exported tree %s", StyleHighlight.Render(cfg.EntityCounts.String()))
		printStats(simStats{}, true)
		printFileSize(output, len(data))
		return nil
	}

	s, err := c.simulate(ctx, cfg, opts.run)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	src := dot.ToDOT(s.Graph(), dot.Options{
		Detailed:  opts.detailed,
		Joints:    opts.joints,
		Relations: opts.relations,
		MaxDepth:  opts.maxDepth,
	})
	data := []byte(src)
	if opts.format == formatSVG {
		spinner := newSpinner(ctx, "Running Graphviz...")
		spinner.Start()
		data, err = dot.RenderSVG(ctx, src)
		if err != nil {
			spinner.StopWithError("Graphviz failed")
			return fmt.Errorf("render tree: %w", err)
		}
		spinner.Stop()
	}

	if err := store.Set(ctx, key, data, 0); err != nil {
		loggerFromContext(ctx).Warn("cache write failed", "err", err)
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}

	printSuccess("Exported tree %s", StyleHighlight.Render(cfg.EntityCounts.String()))
	printStats(statsOf(s), false)
	printFileSize(output, len(data))
	return nil
}
