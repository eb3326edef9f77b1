package tracking

import (
	"sort"
	"time"
)

// Operation is the pending write for an entry.
type Operation int

const (
	Insert Operation = iota + 1
	Update
	Delete
)

func (o Operation) String() string {
	switch o {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Entry is one entity in a change snapshot.
type Entry struct {
	Entity    Entity
	Operation Operation
	Original  Values
	Current   Values
}

// NewEntry captures the current values of entity against original.
// Inserts have no original values; they report their current values for both sides.
func NewEntry(entity Entity, op Operation, original Values) Entry {
	current := entity.TrackedValues().Clone()
	switch op {
	case Insert:
		original = current
	case Delete:
		if original == nil {
			original = current
		}
		current = original
	}
	return Entry{
		Entity:    entity,
		Operation: op,
		Original:  original.Clone(),
		Current:   current,
	}
}

// Kind returns the entity kind of the entry.
func (e Entry) Kind() Kind {
	return e.Entity.EntityKind()
}

// ID returns the entity id of the entry.
func (e Entry) ID() string {
	return e.Entity.EntityID()
}

// Property describes one tracked property of an entry.
type Property struct {
	Name       string
	Original   any
	Current    any
	IsModified bool
}

// Property returns original/current access for the named property.
// Only updates report IsModified.
func (e Entry) Property(name string) Property {
	orig := e.Original[name]
	cur := e.Current[name]
	return Property{
		Name:       name,
		Original:   orig,
		Current:    cur,
		IsModified: e.Operation == Update && !equalValues(orig, cur),
	}
}

// ModifiedProperties lists the names of changed properties in name order.
func (e Entry) ModifiedProperties() []string {
	if e.Operation != Update {
		return nil
	}
	var names []string
	for name := range e.Current {
		if e.Property(name).IsModified {
			names = append(names, name)
		}
	}
	for name := range e.Original {
		if _, ok := e.Current[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// HasModifications reports whether any property of an update changed.
func (e Entry) HasModifications() bool {
	return len(e.ModifiedProperties()) > 0
}

// TypedProperty is Property with values asserted to V.
type TypedProperty[V any] struct {
	Name       string
	Original   V
	Current    V
	IsModified bool
}

// PropertyOf returns the named property of e typed as V.
// Values that are missing or of another type yield the zero value.
func PropertyOf[V any](e Entry, name string) TypedProperty[V] {
	p := e.Property(name)
	orig, _ := p.Original.(V)
	cur, _ := p.Current.(V)
	return TypedProperty[V]{
		Name:       name,
		Original:   orig,
		Current:    cur,
		IsModified: p.IsModified,
	}
}

func equalValues(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}
