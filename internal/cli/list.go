package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdgraph/pkg/pipeline"
	"github.com/matzehuels/mdgraph/pkg/render"
)

// listCommand creates the "list" subcommand.
func (c *CLI) listCommand() *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "list <input>",
		Short: "List the graph blocks of a document without rendering",
		Long: `List locates every graph block in a markdown document and prints its
index, opener line, length, indentation and the image it would render to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, f)
			if err != nil {
				return err
			}
			opts := pipelineOptions(cfg, args[0], "")
			result, err := pipeline.NewRunner(nil, loggerFromContext(cmd.Context())).Scan(opts)
			if err != nil {
				return err
			}
			printBlockTable(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.format, "format", render.DefaultFormat, "image format: svg, png")
	cmd.Flags().StringVar(&f.imageDir, "image-dir", pipeline.DefaultImageDir, "directory for generated images")

	return cmd
}
