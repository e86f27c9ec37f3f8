package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/secure-customer-api/internal/auth"
	"github.com/iliyamo/secure-customer-api/internal/config"
	"github.com/iliyamo/secure-customer-api/internal/database"
	"github.com/iliyamo/secure-customer-api/internal/handler"
	"github.com/iliyamo/secure-customer-api/internal/logging"
	"github.com/iliyamo/secure-customer-api/internal/mailer"
	"github.com/iliyamo/secure-customer-api/internal/middleware"
	"github.com/iliyamo/secure-customer-api/internal/queue"
	"github.com/iliyamo/secure-customer-api/internal/repository"
	"github.com/iliyamo/secure-customer-api/internal/repository/memory"
	"github.com/iliyamo/secure-customer-api/internal/router"
	"github.com/iliyamo/secure-customer-api/internal/service"
)

// stores bundles the persistence collaborators for the chosen backend.
type stores struct {
	users     auth.UserStore
	tokens    auth.RefreshTokenStore
	customers service.CustomerStore
	checks    map[string]handler.Check
	close     func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.Storage == "memory" {
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return &stores{
			users:     memory.NewUserStore(),
			tokens:    memory.NewTokenStore(),
			customers: memory.NewCustomerStore(),
			checks:    map[string]handler.Check{},
			close:     func() {},
		}, nil
	}

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &stores{
		users:     repository.NewUserRepo(db),
		tokens:    repository.NewTokenRepo(db),
		customers: repository.NewCustomerRepo(db),
		checks:    map[string]handler.Check{"mysql": db.PingContext},
		close:     func() { _ = db.Close() },
	}, nil
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.Storage).Msg("open storage")
	}
	defer st.close()

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, auth.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	var events service.EventPublisher
	if cfg.AMQPURL != "" {
		events = queue.NewPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		startMailConsumer(ctx, cfg)
	}

	var refresh *auth.RefreshManager
	opts := []service.SessionOption{
		service.WithEvents(events),
		service.WithExposeResetToken(cfg.ExposeResetToken),
	}
	if cfg.RefreshEnabled {
		refresh = auth.NewRefreshManager(st.tokens, cfg.RefreshTTL)
		opts = append(opts, service.WithRefresh(refresh))
	}
	sessions := service.NewSessionService(st.users, hasher, issuer,
		auth.NewResetManager(st.users, hasher, cfg.ResetTTL), opts...)
	users := service.NewUserService(st.users, refresh, events)
	customers := service.NewCustomerService(st.customers)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	middleware.RegisterMetrics(reg)
	service.RegisterMetrics(reg)

	guards := router.Guards{Authn: middleware.JWTAuth(issuer, nil)}
	if rdb, err := config.NewRedisClient(ctx); err != nil {
		log.Warn().Err(err).Msg("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
		guards.RateLimit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		guards.Cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		st.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(middleware.RequestLogger(), middleware.Metrics(), echomw.Recover())

	router.RegisterRoutes(e, handler.Health(st.checks), reg)
	router.RegisterAuth(e, handler.NewAuthHandler(sessions), guards)
	router.RegisterUsers(e, handler.NewUserHandler(users, sessions), guards)
	router.RegisterAdmin(e, handler.NewAdminHandler(users), guards)
	router.RegisterCustomers(e, handler.NewCustomerHandler(customers), guards)

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("storage", cfg.Storage).
			Bool("refresh", sessions.RefreshEnabled()).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("stopped")
}

// startMailConsumer delivers reset mail from the account events queue when
// SMTP is configured.
func startMailConsumer(ctx context.Context, cfg config.Config) {
	if cfg.Mail.Host == "" {
		return
	}
	m, err := mailer.NewSMTPMailer(cfg.Mail)
	if err != nil {
		log.Error().Err(err).Msg("mailer disabled")
		return
	}
	c := queue.NewConsumer(cfg.AMQPURL, cfg.AMQPQueue, m.HandleAccountEvent)
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("account-consumer stopped")
		}
	}()
}
