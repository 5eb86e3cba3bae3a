package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/growth"
	"github.com/matzehuels/emergence/pkg/sim"
)

// runOpts holds the flags shared by commands that advance a simulation.
type runOpts struct {
	ticks       int    // fixed number of ticks
	untilSteady bool   // run until every compound has formed
	limit       int    // tick limit for untilSteady
	mode        string // formation mode: grow or ring
}

func (o *runOpts) bind(cmd *cobra.Command, ticks int) {
	o.ticks = ticks
	o.limit = defaultTickLimit
	cmd.Flags().IntVarP(&o.ticks, "ticks", "n", o.ticks, "number of ticks to simulate")
	cmd.Flags().BoolVar(&o.untilSteady, "until-steady", false, "run until every cluster has formed")
	cmd.Flags().IntVar(&o.limit, "limit", o.limit, "tick limit for --until-steady")
	cmd.Flags().StringVar(&o.mode, "mode", "grow", "formation mode: grow, ring")
}

func (o *runOpts) growthMode() (growth.Mode, error) {
	switch o.mode {
	case "", "grow":
		return growth.ModeGrow, nil
	case "ring":
		return growth.ModeRing, nil
	}
	return 0, fmt.Errorf("invalid mode: %s (must be 'grow' or 'ring')", o.mode)
}

// simulate builds a simulation for cfg and advances it per o.
func (c *CLI) simulate(ctx context.Context, cfg config.Config, o runOpts, extra ...sim.Option) (*sim.Simulation, error) {
	mode, err := o.growthMode()
	if err != nil {
		return nil, err
	}
	opts := append([]sim.Option{sim.WithLogger(loggerFromContext(ctx)), sim.WithMode(mode)}, extra...)
	s, err := sim.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if o.untilSteady {
		if _, err := s.RunUntilSteady(ctx, o.limit); err != nil {
			return s, err
		}
		return s, nil
	}
	return s, s.Run(ctx, o.ticks)
}

// runCommand creates the run command that simulates headlessly and reports
// statistics.
func (c *CLI) runCommand() *cobra.Command {
	var (
		cf   configFlags
		opts runOpts
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation headlessly and print statistics",
		Long: `Run a simulation without rendering.

The entity tree is built from the config, then advanced tick by tick. With
--until-steady the run stops once every cluster has formed its ring.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			return c.runRun(cmd.Context(), cfg, opts)
		},
	}

	cf.bind(cmd)
	opts.bind(cmd, 600)

	return cmd
}

func (c *CLI) runRun(ctx context.Context, cfg config.Config, opts runOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	s, err := c.simulate(ctx, cfg, opts)
	if s != nil {
		prog.ticks("simulated", s.Ticks(), "run", s.RunID()[:8])
	}
	if err != nil {
		printError("Simulation stopped")
		return fmt.Errorf("simulate: %w", err)
	}

	printSuccess("Simulated %s", StyleHighlight.Render(cfg.EntityCounts.String()))
	printStats(statsOf(s), false)
	printKeyValue("run", s.RunID())
	printKeyValue("seed", fmt.Sprint(cfg.Seed))
	if !s.Steady() {
		printWarning("Not every cluster has formed yet")
		printNextStep("Keep going", appName+" run --until-steady")
	}
	return nil
}
