package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codelens-ai/codelens/client"
)

func newQueryCmd() *cobra.Command {
	var filter client.QueryFilter
	var showAttempts bool
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the indexed codebase",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			res, err := apiClient.Query(ctx, client.QueryRequest{
				Question: args[0],
				Filter:   filter,
			})
			if err != nil {
				if client.IsNotFound(err) {
					fatal("query", fmt.Errorf("no relevant code found for this question"))
				}
				fatal("query", err)
			}

			if flagFmt == "table" {
				headers := []string{"RANK", "SOURCE", "ENTITY", "SCORE", "SNIPPET"}
				var rows [][]string
				for _, r := range res.Results {
					rows = append(rows, []string{
						fmt.Sprintf("%d", r.Rank),
						string(r.Source),
						r.EntityID,
						fmt.Sprintf("%.4f", r.Score),
						truncateCell(r.Snippet, 60),
					})
				}
				formatTable(headers, rows)
				if res.Answer != "" {
					fmt.Println()
					fmt.Println(res.Answer)
				}
				return
			}

			if !showAttempts {
				res.Attempts = nil
			}
			output(res, res.Answer)
		},
	}
	cmd.Flags().StringVar(&filter.Kind, "kind", "", "Restrict to a node kind: namespace|class|method")
	cmd.Flags().StringVar(&filter.Namespace, "namespace", "", "Restrict to a namespace")
	cmd.Flags().StringVar(&filter.Class, "class", "", "Restrict to a class")
	cmd.Flags().StringVar(&filter.Method, "method", "", "Restrict to a method")
	cmd.Flags().StringVar(&filter.FilePath, "file", "", "Restrict to a file path")
	cmd.Flags().BoolVar(&showAttempts, "attempts", false, "Include the structural query attempt log")
	return cmd
}
