package calc

import "time"

// Calculation is a single persisted history entry: an expression the client
// evaluated and the result it computed. Records are never mutated after
// creation.
type Calculation struct {
	// ID is assigned by the storage engine and strictly increases with insertion order
	ID int64 `json:"id"`

	// Expression is the client's textual calculation, stored verbatim
	Expression string `json:"expression"`

	// Result is the client's textual result, stored verbatim
	Result string `json:"result"`

	// CreatedAt is set by the server when the record is created (UTC)
	CreatedAt time.Time `json:"createdAt"`
}

// ToMicros converts t to the integer representation stored in created_at.
func ToMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

// FromMicros converts a stored created_at value back to a UTC time.
func FromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
