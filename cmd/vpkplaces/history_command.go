package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vpkplaces/internal/batch"
	"vpkplaces/internal/history"
)

const defaultHistoryLimit = 20

type runDetail struct {
	*history.Run
	Files []batch.Outcome `json:"files"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded extraction runs",
		Long: `Without arguments, history lists the most recent runs. With a run id
(or a unique prefix of one) it lists the per-file outcomes of that run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, strings.TrimSpace(args[0]), asJSON)
			}
			return listRuns(cmd, store, limit, asJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func listRuns(cmd *cobra.Command, store *history.Store, limit int, asJSON bool) error {
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if asJSON {
		if runs == nil {
			runs = []history.Run{}
		}
		return writeJSON(cmd, runs)
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			formatTimestamp(run.StartedAt),
			string(run.Status),
			run.Format,
			mergeLabel(run.Merge),
			strconv.Itoa(run.Extracted),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
			run.InputDir,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Started", "Status", "Format", "Mode", "Extracted", "Skipped", "Failed", "Input"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

func showRun(cmd *cobra.Command, store *history.Store, id string, asJSON bool) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	files, err := store.RunFiles(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	if asJSON {
		if files == nil {
			files = []batch.Outcome{}
		}
		return writeJSON(cmd, runDetail{Run: run, Files: files})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintf(out, "Started:  %s\n", formatTimestamp(run.StartedAt))
	fmt.Fprintf(out, "Duration: %s\n", formatDuration(run.FinishedAt.Sub(run.StartedAt)))
	fmt.Fprintf(out, "Input:    %s\n", run.InputDir)
	fmt.Fprintf(out, "Output:   %s (%s, %s)\n", run.OutputDir, run.Format, mergeLabel(run.Merge))
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No files recorded")
		return nil
	}
	rows := make([][]string, 0, len(files))
	for _, o := range files {
		rows = append(rows, outcomeRow(o))
	}
	fmt.Fprint(out, renderTable(outcomeHeaders, rows, outcomeAligns))
	return nil
}

func mergeLabel(merge bool) string {
	if merge {
		return "merged"
	}
	return "per-map"
}
