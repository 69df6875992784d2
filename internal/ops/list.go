package ops

import (
	"context"

	"github.com/hpungsan/abacus/internal/calc"
)

// ListRecent returns the most recent calculations, newest first.
// limit <= 0 or above HistoryLimit is clamped to HistoryLimit.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]calc.Calculation, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}

	items, err := r.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []calc.Calculation{}
	}
	return items, nil
}
