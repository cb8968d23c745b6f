package cli

import (
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mdgraph/pkg/render"
)

// completionGenerators maps a shell name to its cobra script generator.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        (*cobra.Command).GenZshCompletion,
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": (*cobra.Command).GenPowerShellCompletionWithDesc,
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	shells := slices.Sorted(maps.Keys(completionGenerators))

	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for bash, fish, powershell or zsh.

Besides subcommands and flags, the scripts complete markdown files for the
input argument and the accepted values of --format, --renderer and --engine.

  $ source <(mdgraph completion bash)
  $ mdgraph completion zsh > "${fpath[1]}/_mdgraph"
  $ mdgraph completion fish > ~/.config/fish/completions/mdgraph.fish
  PS> mdgraph completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// registerCompletions wires argument and flag-value completion for a
// command that takes one markdown document.
func registerCompletions(cmd *cobra.Command) {
	cmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []string{"md", "markdown"}, cobra.ShellCompDirectiveFilterFileExt
	}

	values := map[string]map[string]bool{
		"format":   render.ValidFormats,
		"renderer": render.ValidKinds,
		"engine":   render.ValidEngines,
	}
	for flag, valid := range values {
		if cmd.Flags().Lookup(flag) == nil {
			continue
		}
		choices := slices.Sorted(maps.Keys(valid))
		_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(choices, cobra.ShellCompDirectiveNoFileComp))
	}
}
