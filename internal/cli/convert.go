package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mdgraph/pkg/pipeline"
)

// runConvert converts input and prints a summary.
func (c *CLI) runConvert(cmd *cobra.Command, input string, f convertFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		logger.Debug("config", "path", cfg.Path)
	}

	opts := pipelineOptions(cfg, input, f.output)
	opts.HTML = f.html
	opts.DryRun = f.dryRun

	if opts.DryRun {
		result, err := pipeline.NewRunner(nil, logger).Scan(opts)
		if err != nil {
			return err
		}
		printBlockTable(cmd.OutOrStdout(), result)
		printInfo("Dry run: %d graph(s), nothing written", len(result.Blocks))
		return nil
	}

	r, store, err := newRenderer(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := pipeline.NewRunner(r, logger)
	watch := startStopwatch(logger)

	var result *pipeline.Result
	if f.progress {
		result, err = runWithProgress(ctx, runner, opts)
	} else {
		result, err = runner.Execute(ctx, opts)
	}
	if err != nil {
		return err
	}

	watch.done("converted", "input", result.Input, "graphs", len(result.Blocks), "cached", result.Stats.CacheHits)
	printSummary(result)
	return nil
}

// runWithProgress executes the run while a progress bar tracks finished
// blocks. Log output is suppressed while the bar is drawn.
func runWithProgress(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	scan, err := runner.Scan(opts)
	if err != nil {
		return nil, err
	}
	if len(scan.Blocks) == 0 {
		return runner.Execute(ctx, opts)
	}

	quiet := *runner
	quiet.Logger = log.NewWithOptions(io.Discard, log.Options{})
	return trackProgress(ctx, &quiet, opts, len(scan.Blocks))
}
