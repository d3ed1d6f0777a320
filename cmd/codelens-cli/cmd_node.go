package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codelens-ai/codelens/client"
	"github.com/codelens-ai/codelens/internal/models"
)

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Browse the code graph",
	}
	cmd.AddCommand(newNodeListCmd())
	cmd.AddCommand(newNodeGetCmd())
	cmd.AddCommand(newNodeEdgesCmd())
	return cmd
}

func newNodeListCmd() *cobra.Command {
	var kind, namespace string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List graph nodes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			list, err := apiClient.Graph.List(ctx, client.ListOptions{
				Kind:      kind,
				Namespace: namespace,
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				fatal("node list", err)
			}

			if flagFmt == "table" {
				printNodeTable(list.Nodes)
				return
			}
			output(list, fmt.Sprintf("%d", list.Count))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Filter by node kind: namespace|class|method")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Filter by namespace")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Pagination offset")
	return cmd
}

func newNodeGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one graph node",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			node, err := apiClient.Graph.Get(ctx, args[0])
			if err != nil {
				if client.IsNotFound(err) {
					fatal("node get", fmt.Errorf("node %q not found", args[0]))
				}
				fatal("node get", err)
			}

			if flagFmt == "table" {
				printNodeTable([]models.CodeNode{*node})
				return
			}
			output(node, node.ID)
		},
	}
	return cmd
}

func newNodeEdgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edges <id>",
		Short: "List edges touching a node",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			list, err := apiClient.Graph.Edges(ctx, args[0])
			if err != nil {
				if client.IsNotFound(err) {
					fatal("node edges", fmt.Errorf("node %q not found", args[0]))
				}
				fatal("node edges", err)
			}

			if flagFmt == "table" {
				headers := []string{"SOURCE", "RELATION", "TARGET"}
				var rows [][]string
				for _, e := range list.Edges {
					rows = append(rows, []string{e.Source, e.Relation, e.Target})
				}
				formatTable(headers, rows)
				return
			}
			output(list, fmt.Sprintf("%d", list.Count))
		},
	}
	return cmd
}

func printNodeTable(nodes []models.CodeNode) {
	headers := []string{"ID", "KIND", "NAME", "FILE", "LINES"}
	var rows [][]string
	for _, n := range nodes {
		lines := ""
		if n.StartLine > 0 {
			lines = fmt.Sprintf("%d-%d", n.StartLine, n.EndLine)
		}
		rows = append(rows, []string{n.ID, string(n.Kind), n.Name, n.FilePath, lines})
	}
	formatTable(headers, rows)
}
