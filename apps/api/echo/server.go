package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/speakhq/speakadmin/core"
	"github.com/speakhq/speakadmin/core/analytics"
	"github.com/speakhq/speakadmin/core/category"
	"github.com/speakhq/speakadmin/core/counsellor"
	"github.com/speakhq/speakadmin/core/invite"
	"github.com/speakhq/speakadmin/core/moderation"
	"github.com/speakhq/speakadmin/core/notification"
	"github.com/speakhq/speakadmin/core/settings"
	"github.com/speakhq/speakadmin/core/user"
	"github.com/speakhq/speakadmin/services/identity"
	"github.com/speakhq/speakadmin/services/metrics"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool
		Validate       *validator.Validate
		Translator     ut.Translator
		Metrics        *metrics.Metrics // optional
		Invalidator    core.Invalidator
		Mail           core.EmailService

		Identity      identity.Provider
		Onboarding    *identity.Onboarding
		UserSvc       *user.Service
		CounsellorSvc *counsellor.Service
		InviteSvc     *invite.Service
		Feed          *notification.Feed
		ModerationSvc *moderation.Service
		SettingsSvc   *settings.Service
		CategorySvc   *category.Service
		AnalyticsSvc  *analytics.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.AppBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	registerDiagnosticsAPI(s.app.Group("/api"), s.deps)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerAuthAPI(v1, jwt, s.deps)
	registerCounsellorAPI(v1, jwt, s.deps)
	registerInviteAPI(v1, jwt, s.deps)
	registerUserAPI(v1, jwt, s.deps)
	registerNotificationAPI(v1, jwt, s.deps)
	registerModerationAPI(v1, jwt, s.deps)
	registerSettingsAPI(v1, jwt, s.deps)
	registerCategoryAPI(v1, jwt, s.deps)
	registerDashboardAPI(v1, jwt, s.deps)

	// browsers cannot set headers on websocket upgrades
	liveJWT := middleware.JWTWithConfig(newJWTConfig(conf, "query:token"))
	registerLiveAPI(v1, liveJWT, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Speak Admin API!")
}
