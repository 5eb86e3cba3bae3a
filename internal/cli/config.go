package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/config"
)

// configCommand creates the config command for inspecting configurations.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect simulation configuration",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configValidateCommand())

	return cmd
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var cf configFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Long: `Print the effective configuration as TOML.

Without --config this prints the built-in defaults, which makes a good
starting point for a config file:

  emergence config show > emergence.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}

	cf.bind(cmd)
	return cmd
}

// configValidateCommand creates the "config validate" subcommand.
func (c *CLI) configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a config file for errors",
		Args:  cobra.ExactArgs(1),
		// Offer config files for the positional argument.
		ValidArgsFunction: completeConfigFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				printError("Invalid config %s", args[0])
				return err
			}
			printSuccess("Valid config %s", StyleHighlight.Render(args[0]))
			printKeyValue("counts", cfg.EntityCounts.String())
			printKeyValue("particles", fmt.Sprint(cfg.EntityCounts.TotalParticles()))
			printKeyValue("seed", fmt.Sprint(cfg.Seed))
			return nil
		},
	}
}
