package main

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"vpkplaces/internal/batch"
)

var (
	outcomeHeaders = []string{"File", "Status", "Places", "Vectors", "Reason"}
	outcomeAligns  = []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}
)

func outcomeRow(o batch.Outcome) []string {
	return []string{
		o.Name,
		string(o.Status),
		strconv.Itoa(o.Places),
		strconv.Itoa(o.Vectors),
		truncate(o.Reason, 60),
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
