package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codelens-ai/codelens/internal/models"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <path>...",
		Short: "Index C# source files or directories",
		Long:  "Parse the given C# files (directories are walked recursively) and rebuild the server's code graph and chunk index. Ingestion replaces the previous index.",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			units, err := collectUnits(args)
			if err != nil {
				fatal("ingest", err)
			}
			if len(units) == 0 {
				fatal("ingest", fmt.Errorf("no .cs files found under %s", strings.Join(args, ", ")))
			}

			report, err := apiClient.Ingest(ctx, units)
			if err != nil {
				fatal("ingest", err)
			}

			if flagFmt == "table" {
				headers := []string{"NODES", "EDGES", "CHUNKS", "DEGRADED", "FAILED", "SECONDS"}
				rows := [][]string{{
					fmt.Sprintf("%d", report.Nodes),
					fmt.Sprintf("%d", report.Edges),
					fmt.Sprintf("%d", report.Chunks),
					fmt.Sprintf("%d", report.Degraded),
					fmt.Sprintf("%d", len(report.Failed)),
					fmt.Sprintf("%.2f", report.DurationS),
				}}
				formatTable(headers, rows)
				for _, f := range report.Failed {
					fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", f.Path, f.Reason)
				}
				return
			}
			output(report, fmt.Sprintf("%d", report.Nodes))
		},
	}
	return cmd
}

// collectUnits reads every .cs file reachable from the given paths. A path
// naming a file is taken as-is regardless of extension; directories are
// walked and filtered to .cs.
func collectUnits(paths []string) ([]models.SourceUnit, error) {
	var units []models.SourceUnit

	addFile := func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		units = append(units, models.SourceUnit{
			Path:    filepath.ToSlash(path),
			Content: string(data),
		})
		return nil
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if err := addFile(root); err != nil {
				return nil, err
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".cs") {
				return nil
			}
			return addFile(path)
		})
		if err != nil {
			return nil, err
		}
	}

	return units, nil
}
