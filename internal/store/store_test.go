package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codelens-ai/codelens/internal/models"
)

func TestFormatEmbedding(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", []float32{}, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"several", []float32{0.1, -0.25, 1}, "[0.1,-0.25,1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatEmbedding(tt.in); got != tt.want {
				t.Errorf("formatEmbedding(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAppendFilterBuildsConjunction(t *testing.T) {
	sql, args := appendFilter("SELECT 1 FROM code_chunks WHERE embedding IS NOT NULL",
		[]any{"[0.1]"},
		ChunkFilter{Kind: "method", Class: "Calc"})

	if !strings.Contains(sql, "AND kind = $2") || !strings.Contains(sql, "AND class = $3") {
		t.Errorf("unexpected filter SQL: %q", sql)
	}
	if strings.Contains(sql, "namespace") || strings.Contains(sql, "method = ") {
		t.Errorf("unset fields leaked into SQL: %q", sql)
	}
	if len(args) != 3 || args[1] != "method" || args[2] != "Calc" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestAppendFilterEmptyAddsNothing(t *testing.T) {
	base := "SELECT 1 FROM code_chunks WHERE embedding IS NOT NULL"

	sql, args := appendFilter(base, []any{"[0.1]"}, ChunkFilter{})
	if sql != base {
		t.Errorf("empty filter changed the SQL: %q", sql)
	}
	if len(args) != 1 {
		t.Errorf("empty filter added args: %v", args)
	}
}

func TestChunkFilterEmpty(t *testing.T) {
	if !(ChunkFilter{}).Empty() {
		t.Error("zero filter should be empty")
	}
	if (ChunkFilter{Class: "Calc"}).Empty() {
		t.Error("set filter should not be empty")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := placeholders(4, 3); got != "($4,$5,$6)" {
		t.Errorf("placeholders(4, 3) = %q", got)
	}
}

func TestClassifyQueryErrWrapsPgErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42703", Message: `column "nope" does not exist`}

	err := classifyQueryErr("SELECT nope FROM code_nodes", pgErr)

	var verr *models.QueryValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected QueryValidationError, got %T", err)
	}
	if !strings.Contains(verr.Reason, "does not exist") {
		t.Errorf("unexpected reason %q", verr.Reason)
	}
}

func TestClassifyQueryErrPassesTransportErrors(t *testing.T) {
	err := classifyQueryErr("SELECT id FROM code_nodes", errors.New("connection refused"))

	var verr *models.QueryValidationError
	if errors.As(err, &verr) {
		t.Fatal("transport errors must not look repairable")
	}
}
