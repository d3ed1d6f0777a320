package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server health and index size",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			health, err := apiClient.Health(ctx)
			if err != nil {
				fatal("status", err)
			}
			ready, err := apiClient.Ready(ctx)
			if err != nil {
				fatal("status", err)
			}

			if flagFmt == "table" {
				headers := []string{"STATUS", "VERSION", "MODEL", "DIMS", "NODES", "EDGES"}
				rows := [][]string{{
					ready.Status,
					health.Version,
					health.EmbeddingModel,
					fmt.Sprintf("%d", health.EmbeddingDimensions),
					fmt.Sprintf("%d", ready.Nodes),
					fmt.Sprintf("%d", ready.Edges),
				}}
				formatTable(headers, rows)
				return
			}

			combined := struct {
				Health any `json:"health"`
				Ready  any `json:"ready"`
			}{health, ready}
			output(combined, ready.Status)
		},
	}
	return cmd
}
