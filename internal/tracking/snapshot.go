package tracking

// Snapshot is the set of entries captured for one commit.
type Snapshot struct {
	entries []Entry
}

// NewSnapshot wraps entries; the slice is copied.
func NewSnapshot(entries []Entry) Snapshot {
	return Snapshot{entries: append([]Entry(nil), entries...)}
}

// Entries returns a copy of all entries.
func (s Snapshot) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of entries.
func (s Snapshot) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether the snapshot holds no changes.
func (s Snapshot) IsEmpty() bool {
	return len(s.entries) == 0
}

// OfKind returns the entries for one entity kind.
func (s Snapshot) OfKind(kind Kind) []Entry {
	var out []Entry
	for _, entry := range s.entries {
		if entry.Kind() == kind {
			out = append(out, entry)
		}
	}
	return out
}

// Count returns how many entries have the given operation.
func (s Snapshot) Count(op Operation) int {
	n := 0
	for _, entry := range s.entries {
		if entry.Operation == op {
			n++
		}
	}
	return n
}
