package events

import (
	"time"

	"github.com/spec-kit/contest-service/internal/tracking"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	// EventSavingChanges fires before a unit of work writes; handlers may veto.
	EventSavingChanges EventType = "saving_changes"
	// EventSavedChanges fires after the write is durable.
	EventSavedChanges EventType = "saved_changes"
)

// Event carries a change snapshot through the dispatcher.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Changes   tracking.Snapshot
	// Query reads through the committing unit of work, pending changes included.
	Query tracking.Querier
}
