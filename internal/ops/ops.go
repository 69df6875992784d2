package ops

import (
	"context"
	"time"

	"github.com/hpungsan/abacus/internal/calc"
)

// HistoryLimit is the fixed page size for listing. There is no cursor;
// callers only ever see the most recent HistoryLimit records.
const HistoryLimit = 50

// Store is the storage engine capability the repository consumes.
// *db.DB implements it.
type Store interface {
	Insert(ctx context.Context, c *calc.Calculation) error
	ListRecent(ctx context.Context, limit int) ([]calc.Calculation, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Clock supplies the current instant for createdAt.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Repository maps calculation records to durable storage. It holds no
// state of its own; every call is a single storage statement.
type Repository struct {
	store Store
	clock Clock
}

// NewRepository creates a Repository. A nil clock means SystemClock.
func NewRepository(store Store, clock Clock) *Repository {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Repository{store: store, clock: clock}
}
