package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// Publisher is the slice of the redis client the change feed uses.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ContestChange is one committed contest change on the feed.
type ContestChange struct {
	EventID        string               `json:"event_id"`
	Operation      string               `json:"operation"`
	ContestID      string               `json:"contest_id"`
	Name           string               `json:"name"`
	Status         domain.ContestStatus `json:"status"`
	PreviousStatus domain.ContestStatus `json:"previous_status,omitempty"`
	LockDate       time.Time            `json:"lock_date"`
	CommittedAt    time.Time            `json:"committed_at"`
}

// ChangeFeed publishes committed contest changes to a redis channel.
type ChangeFeed struct {
	publisher Publisher
	channel   string
	logger    *zap.Logger
}

// NewChangeFeed builds the feed. A nil publisher disables it.
func NewChangeFeed(publisher Publisher, channel string, logger *zap.Logger) *ChangeFeed {
	return &ChangeFeed{publisher: publisher, channel: channel, logger: logger}
}

// RegisterHandlers subscribes to post-commit events.
func (f *ChangeFeed) RegisterHandlers(dispatcher events.Dispatcher) {
	if f.publisher == nil || dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventSavedChanges, f.Handle)
}

// Handle publishes every contest entry of a committed snapshot.
func (f *ChangeFeed) Handle(ctx context.Context, event events.Event) error {
	var errs error
	for _, entry := range event.Changes.OfKind(domain.KindContest) {
		payload, err := json.Marshal(contestChange(event, entry))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("encode contest %s: %w", entry.ID(), err))
			continue
		}
		if err := f.publisher.Publish(ctx, f.channel, payload).Err(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("publish contest %s: %w", entry.ID(), err))
			continue
		}
		f.logger.Debug("contest change published",
			zap.String("channel", f.channel), zap.String("contest_id", entry.ID()))
	}
	return errs
}

func contestChange(event events.Event, entry tracking.Entry) ContestChange {
	name := tracking.PropertyOf[string](entry, domain.ContestFieldName)
	lockDate := tracking.PropertyOf[time.Time](entry, domain.ContestFieldLockDate)
	status := tracking.PropertyOf[domain.ContestStatus](entry, domain.ContestFieldStatus)

	change := ContestChange{
		EventID:     event.ID,
		Operation:   entry.Operation.String(),
		ContestID:   entry.ID(),
		Name:        name.Current,
		Status:      status.Current,
		LockDate:    lockDate.Current,
		CommittedAt: event.Timestamp,
	}
	if status.IsModified {
		change.PreviousStatus = status.Original
	}
	return change
}
