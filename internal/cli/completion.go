package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// configExts are the config file types Load understands.
var configExts = []string{"toml", "yaml", "yml"}

// formatValues lists the output formats each rendering command accepts.
var formatValues = map[string][]string{
	"render": {formatSVG, formatText},
	"tree":   {formatSVG, formatDOT},
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for emergence.

Completions cover subcommands, --format and --mode values, and config
files for --config and "config validate".

  $ source <(emergence completion bash)
  $ emergence completion zsh > "${fpath[1]}/_emergence"
  $ emergence completion fish | source
  PS> emergence completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// registerCompletions attaches value completion to the enumerated flags of
// cmd and every command below it.
func registerCompletions(cmd *cobra.Command) {
	if values, ok := formatValues[cmd.Name()]; ok && cmd.Flags().Lookup("format") != nil {
		_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
	if cmd.Flags().Lookup("mode") != nil {
		_ = cmd.RegisterFlagCompletionFunc("mode", cobra.FixedCompletions([]string{"grow", "ring"}, cobra.ShellCompDirectiveNoFileComp))
	}
	if cmd.Flags().Lookup("config") != nil {
		_ = cmd.MarkFlagFilename("config", configExts...)
	}
	for _, sub := range cmd.Commands() {
		registerCompletions(sub)
	}
}

// completeConfigFile offers config files as positional arguments.
func completeConfigFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return configExts, cobra.ShellCompDirectiveFilterFileExt
}
