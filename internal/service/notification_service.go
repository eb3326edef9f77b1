package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/config"
	"github.com/spec-kit/contest-service/internal/domain"
	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/tracking"
)

// Contest milestones announced after commit.
const (
	MilestoneContestCreated     = "ContestCreated"
	MilestoneContestPublished   = "ContestPublished"
	MilestoneContestFinalized   = "ContestFinalized"
	MilestoneContestDeleted     = "ContestDeleted"
	MilestoneContestantEnrolled = "ContestantEnrolled"
)

// NotificationService announces committed contest milestones.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to post-commit events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventSavedChanges, n.handleSavedChanges)
}

func (n *NotificationService) handleSavedChanges(ctx context.Context, event events.Event) error {
	for _, entry := range event.Changes.Entries() {
		milestone := Milestone(entry)
		if milestone == "" {
			continue
		}
		n.logger.Info(milestone,
			zap.String("event_id", event.ID),
			zap.String("entity_id", entry.ID()),
			zap.String("kind", string(entry.Kind())))
		n.sendEmailNotificationStub(ctx, event, milestone, entry)
		n.sendWebhookNotificationStub(ctx, event, milestone, entry)
	}
	return nil
}

// Milestone names the lifecycle milestone a committed entry represents, or "" for none.
func Milestone(entry tracking.Entry) string {
	switch entry.Kind() {
	case domain.KindContest:
		switch entry.Operation {
		case tracking.Insert:
			return MilestoneContestCreated
		case tracking.Delete:
			return MilestoneContestDeleted
		case tracking.Update:
			status := tracking.PropertyOf[domain.ContestStatus](entry, domain.ContestFieldStatus)
			if !status.IsModified {
				return ""
			}
			switch status.Current {
			case domain.ContestStatusPublic:
				return MilestoneContestPublished
			case domain.ContestStatusFinalized:
				return MilestoneContestFinalized
			}
		}
	case domain.KindContestant:
		if entry.Operation == tracking.Insert {
			return MilestoneContestantEnrolled
		}
	}
	return ""
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, milestone string, entry tracking.Entry) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("entity_id", entry.ID()),
		zap.String("milestone", milestone),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event, milestone string, entry tracking.Entry) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("entity_id", entry.ID()),
		zap.String("milestone", milestone),
		zap.String("event_type", string(event.Type)))
}
