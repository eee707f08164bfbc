package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/class-meetup-checkin/internal/config"
	"github.com/iliyamo/class-meetup-checkin/internal/database"
	"github.com/iliyamo/class-meetup-checkin/internal/handler"
	"github.com/iliyamo/class-meetup-checkin/internal/logging"
	"github.com/iliyamo/class-meetup-checkin/internal/payment"
	"github.com/iliyamo/class-meetup-checkin/internal/queue"
	"github.com/iliyamo/class-meetup-checkin/internal/repository"
	"github.com/iliyamo/class-meetup-checkin/internal/router"
	"github.com/iliyamo/class-meetup-checkin/internal/service"
	"github.com/iliyamo/class-meetup-checkin/internal/ticket"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()

	log, err := logging.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if cfg.TicketSecretDefaulted {
		log.Warn("TICKET_QR_SECRET not set; signing tickets with the public development default")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal("connect mysql", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if rdb, err = config.NewRedisClient(ctx, config.LoadRedisConfig()); err != nil {
		log.Warn("redis unavailable; caching and rate limiting disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	ticketRepo := repository.NewTicketRepo(db)
	settings := service.NewCommissionSettings(repository.NewSettingsRepo(db), rdb, cfg.SettingsCacheTTL, log)

	opts := []ticket.Option{ticket.WithLogger(log)}
	if cfg.AMQPURL != "" {
		opts = append(opts, ticket.WithNotifier(service.NewCheckInPublisher(cfg.AMQPURL, log)))
		go func() {
			if err := queue.StartCheckInConsumer(ctx, cfg.AMQPURL, cfg.CheckInLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("check-in consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("AMQP_URL not set; check-in events are not published")
	}
	verifier := ticket.NewVerifier(cfg.TicketSecret, ticketRepo, repository.NewEventRepo(db), repository.NewUserRepo(db), opts...)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(logging.RequestLogger(log))

	router.RegisterRoutes(e, db)
	router.RegisterPayments(e, handler.NewPaymentHandler(payment.NewCalculator(settings, log)), config.LoadCacheConfig(), rdb)
	router.RegisterTickets(e, handler.NewTicketHandler(verifier, ticketRepo), cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterAdmin(e, handler.NewAdminHandler(settings), cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
