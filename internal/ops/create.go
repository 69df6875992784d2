package ops

import (
	"context"

	"github.com/hpungsan/abacus/internal/calc"
	"github.com/hpungsan/abacus/internal/errors"
	"github.com/hpungsan/abacus/internal/metrics"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Expression string // required, stored verbatim
	Result     string // required, stored verbatim
}

// Validate reports an invalid-input error if either field is empty.
func (in CreateInput) Validate() error {
	if in.Expression == "" {
		return errors.NewInvalidInput("expression is required")
	}
	if in.Result == "" {
		return errors.NewInvalidInput("result is required")
	}
	return nil
}

// Create persists a new calculation stamped with the repository clock and
// returns it with the storage-assigned ID.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*calc.Calculation, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	c := &calc.Calculation{
		Expression: input.Expression,
		Result:     input.Result,
		CreatedAt:  r.clock.Now().UTC(),
	}

	if err := r.store.Insert(ctx, c); err != nil {
		return nil, err
	}

	metrics.RecordCalculationCreated()
	return c, nil
}
