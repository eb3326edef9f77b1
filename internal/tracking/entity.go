// Package tracking models the before/after view of entities in a pending commit.
package tracking

import "context"

// Kind names an entity type known to the store.
type Kind string

// Values holds tracked property values keyed by property name.
// Values must be comparable; time.Time values are compared with Equal.
type Values map[string]any

// Clone returns a shallow copy of the values.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Entity is anything a unit of work can track.
type Entity interface {
	EntityKind() Kind
	EntityID() string
	SetEntityID(id string)
	TrackedValues() Values
}

// Query selects entities of Kind whose Field equals Value.
type Query struct {
	Kind  Kind
	Field string
	Value string
}

// Querier answers foreign-key scoped queries.
type Querier interface {
	Count(ctx context.Context, q Query) (int, error)
	Any(ctx context.Context, q Query) (bool, error)
}
