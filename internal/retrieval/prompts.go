package retrieval

import (
	"fmt"
	"strings"
)

// graphSchema describes the queryable relations for the query generator.
// It is the single source of truth the model sees; columns not listed here
// are not promised to exist.
const graphSchema = `Tables:
  code_nodes(id, kind, name, namespace, class, file_path, start_line, end_line, signature, doc)
    -- kind is one of 'namespace', 'class', 'method'
    -- id is the qualified path, e.g. 'Acme.Billing/Invoice/Compute'
  code_edges(source, target, relation)
    -- relation is one of 'contains', 'calls', 'references'
    -- source and target are code_nodes ids`

const generateSystem = `You translate questions about a C# codebase into a single read-only SQL SELECT statement.

` + graphSchema + `

Rules:
- Output exactly one SELECT statement and nothing else. No prose, no code fences.
- Always select the id column so results can be traced to code entities.
- Only the tables above exist. No writes, no comments, no semicolons, no CTEs.
- Always end with a LIMIT clause.`

// generatePrompt asks for a first query attempt from the question alone.
func generatePrompt(question string) string {
	return fmt.Sprintf("Question: %s\n\nWrite the SQL query.", question)
}

// repairPrompt feeds a rejected query and its rejection reason back for
// one corrected attempt.
func repairPrompt(question, query, reason string) string {
	return fmt.Sprintf(`Question: %s

Your previous query was rejected.

Query:
%s

Rejection:
%s

Write a corrected SQL query. Output only the query.`, question, query, reason)
}

const rewriteSystem = `You rewrite search queries about a C# codebase to improve semantic code search recall.
Expand the question with likely identifier names, synonyms, and C# terminology.
Output only the rewritten query text on a single line.`

// rewritePrompt asks for one recall-oriented reformulation of the question.
func rewritePrompt(question string) string {
	return "Rewrite this code search query: " + question
}

// AnswerSystem is the system prompt for the final generation call.
const AnswerSystem = `You answer questions about a C# codebase using only the provided context.
Cite code entities by their qualified path. If the context does not contain
the answer, say so instead of guessing.`

// AnswerPrompt assembles the final generation prompt from the fused
// context, keeping the two retrieval paths in separate sections.
func AnswerPrompt(question, graphContext, vectorContext string) string {
	var sb strings.Builder

	sb.WriteString("## Structural context (code graph)\n")
	if graphContext == "" {
		sb.WriteString("(none)\n")
	} else {
		sb.WriteString(graphContext)
	}

	sb.WriteString("\n## Semantic context (code search)\n")
	if vectorContext == "" {
		sb.WriteString("(none)\n")
	} else {
		sb.WriteString(vectorContext)
	}

	sb.WriteString("\n## Question\n")
	sb.WriteString(question)
	sb.WriteString("\n")

	return sb.String()
}

// stripFences removes markdown code fences the model sometimes wraps
// around a query despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	return strings.TrimSpace(s)
}
