package testfixtures

import (
	"log/slog"
	"time"

	"github.com/cuentas-claras/panel/internal/application"
)

// ServiceFactory assists tests with constructing application services using a
// deterministic clock.
type ServiceFactory struct {
	Clock *Clock
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock: NewClock(time.Time{}),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// SessionStoreDeps captures dependencies for constructing a session store.
type SessionStoreDeps struct {
	Vault   application.CredentialVault
	Gateway application.AuthGateway
	Now     func() time.Time
	Logger  *slog.Logger
}

// NewSessionStore builds a session store using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewSessionStore(deps SessionStoreDeps) *application.SessionStore {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewSessionStoreWithLogger(
		deps.Vault,
		deps.Gateway,
		now,
		deps.Logger,
	)
}

// NotificationCenterDeps captures dependencies for constructing a
// notification center.
type NotificationCenterDeps struct {
	Gateway  application.NotificationGateway
	Cache    application.NotificationCache
	Sessions application.SessionSource
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewNotificationCenter builds a notification center using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewNotificationCenter(deps NotificationCenterDeps) *application.NotificationCenter {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewNotificationCenterWithLogger(
		deps.Gateway,
		deps.Cache,
		deps.Sessions,
		deps.Interval,
		now,
		deps.Logger,
	)
}

// DashboardServiceDeps captures dependencies for constructing a dashboard
// service.
type DashboardServiceDeps struct {
	Expenses application.ExpenseGateway
	Fines    application.FineGateway
	Center   *application.NotificationCenter
	Now      func() time.Time
	Logger   *slog.Logger
}

// NewDashboardService builds a dashboard service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewDashboardService(deps DashboardServiceDeps) *application.DashboardService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewDashboardServiceWithLogger(
		deps.Expenses,
		deps.Fines,
		deps.Center,
		now,
		deps.Logger,
	)
}
