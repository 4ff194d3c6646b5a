package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vpkplaces/internal/config"
	"vpkplaces/internal/vpk"
)

type entryView struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	CRC32   string `json:"crc32"`
	Archive string `json:"archive"`
	Check   string `json:"check,omitempty"`
}

func newEntriesCommand() *cobra.Command {
	var ext string
	var asJSON bool
	var verify bool

	cmd := &cobra.Command{
		Use:         "entries <file.vpk>",
		Short:       "List the entries stored in a map archive",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			pkg, err := vpk.Open(path, vpk.WithChecksumVerification())
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer pkg.Close()

			views := collectEntries(pkg, strings.TrimPrefix(strings.TrimSpace(ext), "."), verify)
			if asJSON {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(out, "No matching entries")
				return nil
			}
			headers := []string{"Path", "Size", "CRC32", "Archive"}
			aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}
			if verify {
				headers = append(headers, "Check")
				aligns = append(aligns, alignLeft)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				row := []string{v.Path, strconv.FormatInt(v.Size, 10), v.CRC32, v.Archive}
				if verify {
					row = append(row, v.Check)
				}
				rows = append(rows, row)
			}
			fmt.Fprint(out, renderTable(headers, rows, aligns))
			fmt.Fprintf(out, "%d entries\n", len(views))
			return nil
		},
	}

	cmd.Flags().StringVar(&ext, "ext", "", "Only list entries with this extension (for example vents_c)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&verify, "verify", false, "Read every listed entry and check its CRC32")
	return cmd
}

func collectEntries(pkg *vpk.Package, ext string, verify bool) []entryView {
	views := []entryView{}
	for _, e := range pkg.Files() {
		if ext != "" && e.Extension != ext {
			continue
		}
		v := entryView{
			Path:    e.Path(),
			Size:    e.Size(),
			CRC32:   fmt.Sprintf("%08x", e.CRC32),
			Archive: archiveLabel(e),
		}
		if verify {
			v.Check = verifyEntry(pkg, e)
		}
		views = append(views, v)
	}
	return views
}

func archiveLabel(e *vpk.Entry) string {
	if e.Length == 0 {
		return "preload"
	}
	if e.InDirectoryFile() {
		return "dir"
	}
	return fmt.Sprintf("%03d", e.ArchiveIndex)
}

func verifyEntry(pkg *vpk.Package, e *vpk.Entry) string {
	_, err := pkg.ReadEntry(e)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, vpk.ErrChecksumMismatch):
		return "crc mismatch"
	default:
		return err.Error()
	}
}
