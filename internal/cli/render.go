package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/cache"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/observability"
	"github.com/matzehuels/emergence/pkg/render/svg"
	"github.com/matzehuels/emergence/pkg/render/term"
	"github.com/matzehuels/emergence/pkg/sim"
)

const (
	formatSVG  = "svg"
	formatText = "txt"
	formatDOT  = "dot"

	defaultWidth    = 800 // SVG viewport width
	defaultTextCols = 100 // text canvas width
	defaultTextRows = 40  // text canvas height
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	run     runOpts
	output  string // output file path
	format  string // svg or txt
	width   int    // SVG width in pixels, or text columns
	labels  bool   // draw entity ids
	cores   bool   // draw inner cores
	reveal  int    // depth to reveal before rendering; -1 keeps the root
	noCache bool   // bypass the artifact cache
}

// renderCommand creates the render command that writes a scene snapshot.
func (c *CLI) renderCommand() *cobra.Command {
	var cf configFlags
	opts := renderOpts{format: formatSVG, width: defaultWidth, reveal: -1}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a snapshot of the simulation to SVG",
		Long: `Render a snapshot of the simulation.

The simulation runs for --ticks (or --until-steady) and the visible blobs,
particles and relations are written as SVG or as a text canvas. Runs are
deterministic per config, so results are cached locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format, formatSVG, formatText); err != nil {
				return err
			}
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cfg, opts)
		},
	}

	cf.bind(cmd)
	opts.run.bind(cmd, 600)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default emergence.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), txt")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "SVG width in pixels")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "label blobs with their ids")
	cmd.Flags().BoolVar(&opts.cores, "cores", false, "draw inner cores")
	cmd.Flags().IntVar(&opts.reveal, "reveal", opts.reveal, "reveal every cluster at this depth")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// validateFormat checks format against the allowed set.
func validateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s (must be one of %v)", format, allowed)
}

func (c *CLI) runRender(ctx context.Context, cfg config.Config, opts renderOpts) error {
	store, err := newCache(opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	hash, err := configHash(cfg)
	if err != nil {
		return err
	}
	ticks := opts.run.ticks
	if opts.run.untilSteady {
		ticks = -opts.run.limit
	}
	key := cache.NewDefaultKeyer().SceneKey(hash+opts.run.mode, cache.SceneKeyOpts{
		Ticks:     ticks,
		Format:    opts.format,
		Width:     opts.width,
		Labels:    opts.labels,
		Particles: cfg.ShowParticles,
		Reveal:    opts.reveal,
	})

	output := opts.output
	if output == "" {
		output = appName + "." + opts.format
	}

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		if err := writeOutput(output, data); err != nil {
			return err
		}
		printSuccess("Rendered %s", StyleHighlight.Render(cfg.EntityCounts.String()))
		printStats(simStats{}, true)
		printFileSize(output, len(data))
		return nil
	}

	spinner := newSpinner(ctx, "Simulating...")
	spinner.Start()
	s, err := c.simulate(ctx, cfg, opts.run, sim.WithProgress(spinner.Progress))
	if err != nil {
		spinner.StopWithError("Simulation failed")
		return fmt.Errorf("simulate: %w", err)
	}
	spinner.Phase("Rendering...")

	if opts.reveal >= 0 {
		s.Reveal(opts.reveal)
		// Hulls of newly visible clusters are rebuilt on the next tick.
		if err := s.Tick(ctx); err != nil {
			spinner.StopWithError("Simulation failed")
			return fmt.Errorf("simulate: %w", err)
		}
	}

	data := renderScene(ctx, s.Scene(), opts)
	spinner.Stop()
	if err := store.Set(ctx, key, data, 0); err != nil {
		loggerFromContext(ctx).Warn("cache write failed", "err", err)
	}
	if err := writeOutput(output, data); err != nil {
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(cfg.EntityCounts.String()))
	printStats(statsOf(s), false)
	printFileSize(output, len(data))
	return nil
}

// renderScene encodes sc in the requested format, reporting to the render
// hooks.
func renderScene(ctx context.Context, sc sim.Scene, opts renderOpts) []byte {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.format)
	start := time.Now()

	var data []byte
	switch opts.format {
	case formatText:
		cols := opts.width
		if cols == defaultWidth {
			cols = defaultTextCols
		}
		data = []byte(term.Fit(sc, cols, defaultTextRows).Plain() + "\n")
	default:
		svgOpts := []svg.Option{svg.WithWidth(float64(opts.width))}
		if opts.labels {
			svgOpts = append(svgOpts, svg.WithLabels())
		}
		if opts.cores {
			svgOpts = append(svgOpts, svg.WithCores())
		}
		data = svg.Render(sc, svgOpts...)
	}

	hooks.OnRenderComplete(ctx, opts.format, len(data), time.Since(start), nil)
	return data
}
