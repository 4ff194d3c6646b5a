package main

import (
	"github.com/spf13/cobra"
)

type extractFlags struct {
	outputDir  string
	merge      bool
	filter     string
	pretty     bool
	format     string
	profileDir string
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var logFormat string
	flags := &extractFlags{}

	ctx := newCommandContext(&configFlag, &logLevel, &logFormat)

	rootCmd := &cobra.Command{
		Use:   "vpkplaces [input-dir]",
		Short: "Extract place markers from Source 2 map archives",
		Long: `vpkplaces reads every map archive in a directory, collects the named
place markers of each map, and writes them as JSON or YAML documents.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, flags, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console, json)")

	rootCmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "Output directory (defaults to the working directory)")
	rootCmd.Flags().BoolVarP(&flags.merge, "merge", "m", false, "Write all maps into a single file")
	rootCmd.Flags().StringVarP(&flags.filter, "filter", "f", "", "Regular expression selecting archive file names")
	rootCmd.Flags().BoolVarP(&flags.pretty, "pretty", "p", false, "Indent JSON output")
	rootCmd.Flags().StringVar(&flags.format, "format", "", "Output format (json, yaml)")
	rootCmd.Flags().StringVar(&flags.profileDir, "profile-dir", "", "Write a CPU profile to this directory")
	_ = rootCmd.Flags().MarkHidden("profile-dir")

	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newEntriesCommand())

	return rootCmd
}
