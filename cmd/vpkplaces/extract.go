package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"vpkplaces/internal/batch"
	"vpkplaces/internal/config"
	"vpkplaces/internal/history"
	"vpkplaces/internal/logging"
	"vpkplaces/internal/output"
	"vpkplaces/internal/preflight"
	"vpkplaces/internal/source"
)

const noInputMessage = "No input folder provided. --help for help"

func runExtract(cmd *cobra.Command, ctx *commandContext, flags *extractFlags, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	inputDir, err := resolveInputDir(cfg, args)
	if err != nil {
		return err
	}
	if inputDir == "" {
		fmt.Fprintln(out, noInputMessage)
		return nil
	}
	outputDir, err := resolveOutputDir(cmd, cfg, flags)
	if err != nil {
		return err
	}

	if err := preflight.Err(preflight.RunAll(inputDir, outputDir)); err != nil {
		return fmt.Errorf("preflight failed:\n%w", err)
	}

	opts := batch.Options{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Filter:     cfg.Extract.Filter,
		Merge:      cfg.Output.Merge,
		MergedName: cfg.Output.MergedName,
		Output: output.Options{
			Format: cfg.Output.Format,
			Pretty: cfg.Output.Pretty,
		},
		RunID: uuid.NewString(),
	}
	applyFlagOverrides(cmd, flags, &opts)

	if dir := strings.TrimSpace(flags.profileDir); dir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet, profile.NoShutdownHook).Stop()
	}

	logger, err := ctx.newLogger(cmd, opts.RunID)
	if err != nil {
		return err
	}

	runnerOpts := []batch.RunnerOption{}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warn("run history unavailable", logging.String(logging.FieldPath, cfg.History.Path), logging.Error(err))
		} else {
			defer closeStore(store, logger)
			runnerOpts = append(runnerOpts, batch.WithRecorder(store))
		}
	}

	runner := batch.NewRunner(source.NewLocator(cfg.Extract.VerifyCRC), logger, runnerOpts...)
	summary, runErr := runner.Run(cmd.Context(), opts)
	if summary != nil {
		printSummary(out, summary)
	}
	return runErr
}

// resolveInputDir picks the positional argument, then the configured
// directory, then a well-known install location.
func resolveInputDir(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return config.ExpandPath(strings.TrimSpace(args[0]))
	}
	if cfg.Paths.InputDir != "" {
		return cfg.Paths.InputDir, nil
	}
	return config.DefaultInputDir(), nil
}

func resolveOutputDir(cmd *cobra.Command, cfg *config.Config, flags *extractFlags) (string, error) {
	if cmd.Flags().Changed("output") {
		return config.ExpandPath(strings.TrimSpace(flags.outputDir))
	}
	if cfg.Paths.OutputDir != "" {
		return cfg.Paths.OutputDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return wd, nil
}

func applyFlagOverrides(cmd *cobra.Command, flags *extractFlags, opts *batch.Options) {
	changed := cmd.Flags().Changed
	if changed("merge") {
		opts.Merge = flags.merge
	}
	if changed("filter") {
		opts.Filter = flags.filter
	}
	if changed("pretty") {
		opts.Output.Pretty = flags.pretty
	}
	if changed("format") {
		opts.Output.Format = flags.format
	}
}

func closeStore(store *history.Store, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Warn("close run history failed", logging.Error(err))
	}
}

func printSummary(w io.Writer, summary *batch.Summary) {
	// Filtered files only show up in the totals.
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		if o.Status == batch.StatusFiltered {
			continue
		}
		rows = append(rows, outcomeRow(o))
	}
	if len(rows) > 0 {
		fmt.Fprint(w, renderTable(outcomeHeaders, rows, outcomeAligns))
	}
	fmt.Fprintf(w, "Run %s %s: %d extracted, %d skipped, %d failed, %d filtered in %s\n",
		shortID(summary.RunID),
		summary.Status,
		summary.Count(batch.StatusExtracted),
		summary.Count(batch.StatusSkipped),
		summary.Count(batch.StatusFailed),
		summary.Count(batch.StatusFiltered),
		formatDuration(summary.Duration()),
	)
	for _, path := range summary.Written {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}
