package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/abacus/internal/metrics"
)

// ClearOutput contains the result of the ClearAll operation.
type ClearOutput struct {
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

// ClearAll permanently deletes every calculation. Not a soft delete.
func (r *Repository) ClearAll(ctx context.Context) (*ClearOutput, error) {
	n, err := r.store.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	metrics.RecordHistoryCleared(n)
	return &ClearOutput{
		Deleted: n,
		Message: formatClearMessage(n),
	}, nil
}

// formatClearMessage creates a human-readable message for the clear result.
func formatClearMessage(count int64) string {
	if count == 0 {
		return "History is already empty"
	}

	word := "calculation"
	if count > 1 {
		word = "calculations"
	}
	return fmt.Sprintf("Permanently deleted %d %s", count, word)
}
