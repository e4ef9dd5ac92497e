// Package app assembles the services shared by the api server and the admin command line.
package app

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/speakhq/speakadmin/apps/api/echo"
	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/analytics"
	"github.com/speakhq/speakadmin/core/category"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/invite"
	"github.com/speakhq/speakadmin/core/moderation"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/settings"
	"github.com/speakhq/speakadmin/core/user"
	emailsvc "github.com/speakhq/speakadmin/services/email"
	"github.com/speakhq/speakadmin/services/events"
	"github.com/speakhq/speakadmin/services/identity"
	"github.com/speakhq/speakadmin/services/metrics"
	inmemdb "github.com/speakhq/speakadmin/storage/database/inmem"
	"github.com/speakhq/speakadmin/storage/database/mongodb"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type (
	Stores struct {
		Users         user.Repository
		Counsellors   counsellor.Repository
		Notifications notification.Repository
		Moderation    moderation.Repository
		Settings      settings.Repository
		Categories    category.Repository
		Identities    identity.Repository
	}

	App struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Metrics    *metrics.Metrics
		Events     core.Invalidator
		Mail       core.EmailService
		Stores     Stores

		// MemDB is set when the memory driver backs the stores.
		MemDB *inmemdb.DB

		Identity      *identity.Local
		Directory     *identity.Directory
		Onboarding    *identity.Onboarding
		Publisher     *notification.Publisher
		Feed          *notification.Feed
		UserSvc       *user.Service
		CounsellorSvc *counsellor.Service
		InviteSvc     *invite.Service
		ModerationSvc *moderation.Service
		SettingsSvc   *settings.Service
		CategorySvc   *category.Service
		AnalyticsSvc  *analytics.Service

		mongo *mongodb.Store
		bus   *events.RedisBus
	}

	// Option customizes New.
	Option func(*App)
)

// WithMail replaces the configured email backend.
func WithMail(mail core.EmailService) Option {
	return func(a *App) { a.Mail = mail }
}

// WithMemDB backs the stores with db regardless of the configured driver.
func WithMemDB(db *inmemdb.DB) Option {
	return func(a *App) { a.MemDB = db }
}

// New opens the configured store and event bus and builds every service on top of them.
func New(conf *core.Config, logger core.Logger, opts ...Option) (*App, error) {
	a := &App{Conf: conf, Logger: logger, Metrics: metrics.New()}
	a.Validate, a.Translator = core.NewValidator()
	for _, opt := range opts {
		opt(a)
	}

	if err := a.openStores(); err != nil {
		return nil, err
	}
	if err := a.openEvents(); err != nil {
		_ = a.Close()
		return nil, err
	}
	if a.Mail == nil {
		mail, err := emailsvc.New(conf, logger, a.Metrics)
		if err != nil {
			_ = a.Close()
			return nil, errors.Wrap(err, "setting up email service")
		}
		a.Mail = mail
	}

	st := a.Stores
	a.Publisher = notification.NewPublisher(st.Notifications, a.Events, logger)
	a.Feed = notification.NewFeed(st.Notifications, a.Events, logger)
	a.UserSvc = user.NewService(st.Users, conf, a.Events, logger)
	a.CounsellorSvc = counsellor.NewService(st.Counsellors, a.Publisher, a.Events, a.Metrics, logger)
	a.InviteSvc = invite.NewService(conf, invite.Deps{
		Users:       st.Users,
		Counsellors: st.Counsellors,
		Notifier:    a.Publisher,
		Mail:        a.Mail,
		Validate:    a.Validate,
		Invalidator: a.Events,
		Metrics:     a.Metrics,
		Logger:      logger,
	})
	a.ModerationSvc = moderation.NewService(st.Moderation, a.Events, a.Metrics, logger)
	a.SettingsSvc = settings.NewService(st.Settings, a.Validate, a.Events, logger)
	a.CategorySvc = category.NewService(st.Categories, a.Validate, a.Events, logger)
	a.AnalyticsSvc = analytics.NewService(a.UserSvc, a.CounsellorSvc, a.ModerationSvc, a.Feed)

	a.Directory = identity.NewDirectory(conf, st.Users, st.Counsellors)
	a.Identity = identity.NewLocal(st.Identities, a.Directory)
	a.Onboarding = identity.NewOnboarding(a.Identity, st.Identities, a.Directory, a.UserSvc, a.Validate, logger)
	return a, nil
}

func (a *App) openStores() error {
	if a.MemDB == nil && a.Conf.Store.Driver != DriverMemory {
		if a.Conf.Store.Driver != DriverMongo {
			return fmt.Errorf("unknown store driver %q", a.Conf.Store.Driver)
		}
		store, err := mongodb.NewStore(a.Conf.Store.MongoURI, a.Conf.Store.MongoDatabase, a.Logger)
		if err != nil {
			return errors.Wrap(err, "opening mongodb store")
		}
		a.mongo = store
		a.Stores = Stores{
			Users:         mongodb.NewUserRepository(store),
			Counsellors:   mongodb.NewCounsellorRepository(store),
			Notifications: mongodb.NewNotificationRepository(store),
			Moderation:    mongodb.NewModerationRepository(store),
			Settings:      mongodb.NewSettingsRepository(store),
			Categories:    mongodb.NewCategoryRepository(store),
			Identities:    mongodb.NewIdentityRepository(store),
		}
		return nil
	}

	if a.MemDB == nil {
		a.MemDB = inmemdb.Open()
	}
	db := a.MemDB
	a.Stores = Stores{
		Users:         inmemdb.NewUserRepository(db),
		Counsellors:   inmemdb.NewCounsellorRepository(db),
		Notifications: inmemdb.NewNotificationRepository(db),
		Moderation:    inmemdb.NewModerationRepository(db),
		Settings:      inmemdb.NewSettingsRepository(db),
		Categories:    inmemdb.NewCategoryRepository(db),
		Identities:    inmemdb.NewIdentityRepository(db),
	}
	return nil
}

// openEvents relays invalidations through redis when configured, in process otherwise.
func (a *App) openEvents() error {
	if a.Conf.Events.RedisURL == "" {
		a.Events = events.NewBroker()
		return nil
	}
	bus, err := events.NewRedisBus(a.Conf.Events.RedisURL, a.Conf.Events.Channel, a.Logger)
	if err != nil {
		return errors.Wrap(err, "connecting event bus")
	}
	a.bus = bus
	a.Events = bus
	return nil
}

// Run relays cross-instance invalidations until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a.bus == nil {
		<-ctx.Done()
		return nil
	}
	return a.bus.Run(ctx)
}

// CheckStore verifies the configured store is reachable and laid out as expected.
func (a *App) CheckStore(ctx context.Context) error {
	if a.mongo == nil {
		return nil
	}
	return a.mongo.CheckCollections(ctx)
}

func (a *App) ServerDeps(disableReqLogs bool) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:           a.Conf,
		Logger:         a.Logger,
		DisableReqLogs: disableReqLogs,
		Validate:       a.Validate,
		Translator:     a.Translator,
		Metrics:        a.Metrics,
		Invalidator:    a.Events,
		Mail:           a.Mail,
		Identity:       a.Identity,
		Onboarding:     a.Onboarding,
		UserSvc:        a.UserSvc,
		CounsellorSvc:  a.CounsellorSvc,
		InviteSvc:      a.InviteSvc,
		Feed:           a.Feed,
		ModerationSvc:  a.ModerationSvc,
		SettingsSvc:    a.SettingsSvc,
		CategorySvc:    a.CategorySvc,
		AnalyticsSvc:   a.AnalyticsSvc,
	}
}

func (a *App) Close() error {
	var firstErr error
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			firstErr = errors.Wrap(err, "closing event bus")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "closing mongodb store")
		}
	}
	return firstErr
}
