// Package chunker splits code node source into bounded, overlapping chunks
// for embedding. Splitting is lossless: stripping each chunk's leading
// overlap region and concatenating reconstructs the original source exactly.
package chunker

import (
	"github.com/codelens-ai/codelens/internal/models"
)

// Chunker splits node source under a size budget with a fixed overlap.
// Sizes are in runes so multi-byte source never splits mid-character.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. The overlap must be smaller than the size; the
// config layer enforces this before a Chunker is ever constructed.
func New(size, overlap int) *Chunker {
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks one node's source. Chunks never cross node boundaries:
// each node is chunked independently, and a node larger than the budget
// is split into several chunks all linked to the same owner. Nodes
// without source (namespaces, classes) yield nothing.
func (c *Chunker) Split(node *models.CodeNode) []models.Chunk {
	if node.Source == "" {
		return nil
	}

	meta := models.ChunkMetadata{
		Kind:      string(node.Kind),
		Namespace: node.Namespace,
		Class:     node.Class,
		FilePath:  node.FilePath,
	}
	if node.Kind == models.KindMethod {
		meta.Method = node.Name
	}

	runes := []rune(node.Source)
	step := c.size - c.overlap

	var chunks []models.Chunk

	for start, seq := 0, 0; start < len(runes); seq++ {
		// All chunks after the first begin with the overlap tail of
		// their predecessor.
		from := start
		if seq > 0 {
			from = start - c.overlap
		}

		end := start + step
		if seq == 0 {
			end = start + c.size
		}

		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, models.Chunk{
			ID:       models.ChunkID(node.ID, seq),
			NodeID:   node.ID,
			Seq:      seq,
			Text:     string(runes[from:end]),
			Metadata: meta,
		})

		start = end
	}

	return chunks
}

// Reassemble reconstructs the original source from a node's chunks by
// dropping each chunk's leading overlap. Chunks must be in seq order.
func (c *Chunker) Reassemble(chunks []models.Chunk) string {
	var runes []rune

	for i, ch := range chunks {
		text := []rune(ch.Text)
		if i > 0 && len(text) >= c.overlap {
			text = text[c.overlap:]
		}

		runes = append(runes, text...)
	}

	return string(runes)
}
