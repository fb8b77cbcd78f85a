package catalogpricing

import (
	"context"
	"fmt"

	"storefront/internal/model"
)

// DefaultBatchSize bounds the size of a single insert statement
const DefaultBatchSize = 2000

// Sink is the storage the generated rows are written to
type Sink interface {
	Truncate(ctx context.Context) error
	InsertBatch(ctx context.Context, rows []model.CatalogPricing) error
}

// ProgressFunc is told how many rows have been written so far
type ProgressFunc func(written, total int)

// Write replaces the sink's contents with rows, inserting batchSize rows at a
// time. A failure part way through leaves the rows of the batches already
// written in place.
func Write(ctx context.Context, sink Sink, rows []model.CatalogPricing, batchSize int, progress ProgressFunc) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if err := sink.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate catalog pricing: %w", err)
	}

	total := len(rows)
	for start := 0; start < total; start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + batchSize
		if end > total {
			end = total
		}
		if err := sink.InsertBatch(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("failed to insert catalog pricing rows %d-%d: %w", start, end, err)
		}
		if progress != nil {
			progress(end, total)
		}
	}
	return nil
}
