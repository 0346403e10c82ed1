// Package web assembles the HTTP API: the fiber app, the session gate and
// every handler package.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/AgencyDesk/AgencyDesk/internal/auth"
	"github.com/AgencyDesk/AgencyDesk/internal/config"
	accesslog "github.com/AgencyDesk/AgencyDesk/internal/logger/adapter/fiber"
	agencyadmin "github.com/AgencyDesk/AgencyDesk/internal/web/handler/admin/agency"
	roleadmin "github.com/AgencyDesk/AgencyDesk/internal/web/handler/admin/role"
	teamadmin "github.com/AgencyDesk/AgencyDesk/internal/web/handler/admin/team"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/auth/login"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/auth/logout"
	oidchandler "github.com/AgencyDesk/AgencyDesk/internal/web/handler/auth/oidc"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/clients"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/customs"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/dashboard"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/me"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/nav"
	"github.com/AgencyDesk/AgencyDesk/internal/web/handler/sales"
	authmiddleware "github.com/AgencyDesk/AgencyDesk/internal/web/middleware/auth"
)

const checkAliveURI = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "AgencyDesk",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	// access logging
	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAliveURI,
	}))

	// session gate for everything under /api/ except the auth endpoints
	app.Use(authmiddleware.Middleware)

	authService := auth.NewService(db)

	service := &Service{
		cfg:         cfg,
		App:         app,
		db:          db,
		authService: authService,
	}
	service.alive.Store(true)

	// liveness probe for load balancers
	app.Get(checkAliveURI, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	// init handlers (they register their own routes with permission checks)
	if err := login.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("init login handler failed")
	}

	if err := logout.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("init logout handler failed")
	}

	if err := oidchandler.Handler.Init(app, cfg, db); err != nil {
		log.Fatal().Err(err).Msg("init oidc handler failed")
	}

	me.Handler.Init(app, cfg, db, authService)
	nav.Handler.Init(app, cfg, db, authService)
	dashboard.Handler.Init(app, cfg, db, authService)
	clients.Handler.Init(app, cfg, db, authService)
	sales.Handler.Init(app, cfg, db, authService)
	customs.Handler.Init(app, cfg, db, authService)
	teamadmin.Handler.Init(app, cfg, db, authService)
	roleadmin.Handler.Init(app, cfg, db, authService)
	agencyadmin.Handler.Init(app, cfg, db, authService)

	return service
}
