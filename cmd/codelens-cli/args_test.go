package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeArgs runs the given root command with args and returns any error.
// It suppresses cobra's usage/error output so test output stays clean.
func executeArgs(t *testing.T, root *cobra.Command, args ...string) error {
	t.Helper()
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	root.SetArgs(args)
	_, err := root.ExecuteC()
	return err
}

// newTestRoot builds a root command tree identical to main() but with
// PersistentPreRun stubbed out so the API client is never initialised.
func newTestRoot() *cobra.Command {
	root := &cobra.Command{
		Use:          "codelens",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Skip client initialisation in tests.
		},
	}
	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "")
	root.PersistentFlags().StringVar(&flagFmt, "format", "json", "")

	root.AddCommand(newQueryCmd())
	root.AddCommand(newIngestCmd())
	root.AddCommand(newNodeCmd())
	root.AddCommand(newStatusCmd())
	return root
}

// TestQueryRequiresQuestion verifies that query rejects a missing argument
// before any network call happens.
func TestQueryRequiresQuestion(t *testing.T) {
	resetFlags(t)
	if err := executeArgs(t, newTestRoot(), "query"); err == nil {
		t.Error("expected error for query with no question")
	}
}

// TestIngestRequiresPath verifies that ingest rejects an empty argument list.
func TestIngestRequiresPath(t *testing.T) {
	resetFlags(t)
	if err := executeArgs(t, newTestRoot(), "ingest"); err == nil {
		t.Error("expected error for ingest with no paths")
	}
}

// TestNodeGetRequiresID verifies that node get demands exactly one ID.
func TestNodeGetRequiresID(t *testing.T) {
	resetFlags(t)
	if err := executeArgs(t, newTestRoot(), "node", "get"); err == nil {
		t.Error("expected error for node get with no id")
	}
	if err := executeArgs(t, newTestRoot(), "node", "get", "a", "b"); err == nil {
		t.Error("expected error for node get with two ids")
	}
}

// TestStatusRejectsArgs verifies that status takes no positional arguments.
func TestStatusRejectsArgs(t *testing.T) {
	resetFlags(t)
	if err := executeArgs(t, newTestRoot(), "status", "extra"); err == nil {
		t.Error("expected error for status with an argument")
	}
}

// TestUnknownCommand verifies that an unknown subcommand errors.
func TestUnknownCommand(t *testing.T) {
	resetFlags(t)
	if err := executeArgs(t, newTestRoot(), "frobnicate"); err == nil {
		t.Error("expected error for unknown command")
	}
}
