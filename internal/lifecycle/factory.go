package lifecycle

import (
	"go.uber.org/zap"

	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/observability"
	"github.com/spec-kit/contest-service/internal/persistence"
)

// UnitOfWorkFactory builds a unit of work for one command.
type UnitOfWorkFactory func() *persistence.UnitOfWork

// NewUnitOfWorkFactory returns a factory whose units of work each get their own interceptor
// publishing to the shared dispatcher.
func NewUnitOfWorkFactory(store persistence.Store, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) UnitOfWorkFactory {
	return func() *persistence.UnitOfWork {
		return persistence.NewUnitOfWork(store,
			persistence.WithInterceptor(NewInterceptor(dispatcher, logger, metrics)))
	}
}
