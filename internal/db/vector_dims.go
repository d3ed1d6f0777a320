package db

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/dbpool"
	"github.com/codelens-ai/codelens/internal/models"
)

var vectorTypeRE = regexp.MustCompile(`^vector\((\d+)\)$`)

// EnsureVectorDimensions verifies that the code_chunks.embedding column
// matches the configured embedding dimensionality. A mismatch is a fatal
// configuration error: the process must refuse to start rather than serve
// similarity searches against vectors of the wrong shape. No automatic
// schema repair is attempted, since nulling stored embeddings would
// silently discard the index.
func EnsureVectorDimensions(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, dimensions int) error {
	if dimensions < 1 || dimensions > 4096 {
		return fmt.Errorf("embedding dimensions must be between 1 and 4096, got %d", dimensions)
	}

	var currentType string
	err := pool.QueryRow(ctx,
		`SELECT format_type(a.atttypid, a.atttypmod)
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 WHERE c.relname = 'code_chunks' AND a.attname = 'embedding' AND NOT a.attisdropped`,
	).Scan(&currentType)
	if err != nil {
		return fmt.Errorf("querying embedding column type: %w", err)
	}

	m := vectorTypeRE.FindStringSubmatch(currentType)
	if m == nil {
		return fmt.Errorf("code_chunks.embedding has unexpected type %q", currentType)
	}

	stored, err := strconv.Atoi(m[1])
	if err != nil {
		return fmt.Errorf("parsing embedding column dimensions from %q: %w", currentType, err)
	}

	if stored != dimensions {
		return &models.DimensionMismatchError{Configured: dimensions, Stored: stored}
	}

	log.WithField("dimensions", dimensions).Debug("embedding column dimensions match config")

	return nil
}
