package worker

import (
	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/service"
)

// StartNotificationWorker registers the post-commit observers on dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, feed *service.ChangeFeed) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if feed != nil {
		feed.RegisterHandlers(dispatcher)
	}
}
