// Package structural validates LLM-generated structural queries before
// they reach the database. Only a narrow read-only subset of SQL over the
// code graph tables is accepted; anything else is rejected, never repaired
// beyond LIMIT clamping. Rejection feeds the generate/repair loop upstream.
package structural

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codelens-ai/codelens/internal/models"
)

// Allowed tables. Queries may only touch the code graph relations.
var allowedTables = map[string]bool{
	"code_nodes": true,
	"code_edges": true,
}

// Verbs that mutate state or escape the read path. Matched as whole words
// anywhere in the statement, which over-rejects (a column literally named
// "update" would trip it) but never under-rejects.
var forbiddenVerbs = []string{
	"insert", "update", "delete", "drop", "create", "alter", "truncate",
	"grant", "revoke", "copy", "merge", "call", "do", "execute", "set",
	"vacuum", "analyze", "listen", "notify", "lock", "refresh",
}

var (
	wordRe  = regexp.MustCompile(`[a-z_][a-z0-9_]*`)
	limitRe = regexp.MustCompile(`(?i)\blimit\s+(\d+)\b`)
	// Tables are recognized where SQL introduces a relation name.
	tableRe = regexp.MustCompile(`(?i)\b(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)
	// The relation list following FROM, up to the next clause keyword.
	// Commas here would introduce tables tableRe never sees.
	fromListRe = regexp.MustCompile(`(?is)\bfrom\b(.*?)(?:\bwhere\b|\bgroup\b|\border\b|\bhaving\b|\blimit\b|\bjoin\b|$)`)
)

// Validator checks structural queries against the read-only grammar and
// clamps their row counts.
type Validator struct {
	rowCap int
}

// NewValidator creates a Validator that caps result rows at rowCap.
func NewValidator(rowCap int) *Validator {
	return &Validator{rowCap: rowCap}
}

// Validate checks a candidate query and returns a sanitized form safe to
// execute, or a QueryValidationError describing the first violation. The
// sanitized form differs from the input only in whitespace trimming and
// LIMIT clamping.
func (v *Validator) Validate(query string) (string, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	q = strings.TrimSpace(q)

	if q == "" {
		return "", reject(query, "empty query")
	}
	if strings.Contains(q, ";") {
		return "", reject(query, "multiple statements are not allowed")
	}
	if strings.Contains(q, "--") || strings.Contains(q, "/*") {
		return "", reject(query, "comments are not allowed")
	}

	lower := strings.ToLower(q)
	if !strings.HasPrefix(lower, "select") {
		return "", reject(query, "only SELECT queries are allowed")
	}

	for _, word := range wordRe.FindAllString(lower, -1) {
		for _, verb := range forbiddenVerbs {
			if word == verb {
				return "", reject(query, fmt.Sprintf("forbidden keyword %q", verb))
			}
		}
	}

	// A comma after FROM is a cross join: its right-hand tables would
	// never hit the allow-list below. Rejecting the comma outright keeps
	// the scan sound; JOIN syntax remains available.
	for _, m := range fromListRe.FindAllStringSubmatch(lower, -1) {
		if strings.Contains(m[1], ",") {
			return "", reject(query, "comma-joined tables are not allowed, use JOIN")
		}
	}

	tables := tableRe.FindAllStringSubmatch(q, -1)
	if len(tables) == 0 {
		return "", reject(query, "no recognizable table reference")
	}
	for _, m := range tables {
		name := strings.ToLower(m[1])
		if !allowedTables[name] {
			return "", reject(query, fmt.Sprintf("table %q is not queryable", m[1]))
		}
	}

	return v.clampLimit(q), nil
}

// clampLimit enforces the row cap: an absent LIMIT gets one appended, an
// oversized one is lowered. Queries never run uncapped.
func (v *Validator) clampLimit(q string) string {
	m := limitRe.FindStringSubmatch(q)
	if m == nil {
		return fmt.Sprintf("%s LIMIT %d", q, v.rowCap)
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n > v.rowCap || n < 1 {
		return limitRe.ReplaceAllString(q, fmt.Sprintf("LIMIT %d", v.rowCap))
	}

	return q
}

func reject(query, reason string) error {
	return &models.QueryValidationError{Query: query, Reason: reason}
}
