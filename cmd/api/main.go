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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/greencredits/greencredits-backend/api/routes"
	"github.com/greencredits/greencredits-backend/internal/claims"
	"github.com/greencredits/greencredits-backend/internal/collections"
	"github.com/greencredits/greencredits-backend/internal/drivers"
	"github.com/greencredits/greencredits-backend/internal/ledger"
	"github.com/greencredits/greencredits-backend/internal/notifications"
	"github.com/greencredits/greencredits-backend/internal/recurring"
	"github.com/greencredits/greencredits-backend/internal/returnpoints"
	"github.com/greencredits/greencredits-backend/internal/slots"
	"github.com/greencredits/greencredits-backend/internal/subscriptions"
	"github.com/greencredits/greencredits-backend/internal/users"
	paymentswebhook "github.com/greencredits/greencredits-backend/internal/webhooks/payments"
	"github.com/greencredits/greencredits-backend/pkg/config"
	"github.com/greencredits/greencredits-backend/pkg/db"
	"github.com/greencredits/greencredits-backend/pkg/events"
	"github.com/greencredits/greencredits-backend/pkg/logger"
	"github.com/greencredits/greencredits-backend/pkg/metrics"
	"github.com/greencredits/greencredits-backend/pkg/migrate"
	"github.com/greencredits/greencredits-backend/pkg/rabbitmq"
	"github.com/greencredits/greencredits-backend/pkg/redis"
	"github.com/greencredits/greencredits-backend/pkg/timeofday"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	dispatcher := events.NewDispatcher(logg, metrics.NewEventMetrics(registry), cfg.Eventing.HandlerTimeout)

	notificationRepo := notifications.NewRepository(dbClient.DB())
	handlers, err := notifications.NewHandlers(notificationRepo, notifications.NewLogMailer(logg), logg)
	exitOnErr(logg, "failed to create notification handlers", err)
	handlers.Register(dispatcher)

	if cfg.Eventing.BrokerEnabled() {
		producer, err := rabbitmq.NewProducer(cfg.Eventing.AMQPURL, cfg.Eventing.Exchange, logg)
		exitOnErr(logg, "failed to connect to event broker", err)
		defer func() {
			if err := producer.Close(); err != nil {
				logg.Error(context.Background(), "error closing event broker", err)
			}
		}()
		rabbitmq.NewForwarder(producer).Register(dispatcher)
	}

	services, err := buildServices(cfg, logg, dbClient, redisClient, dispatcher, notificationRepo)
	exitOnErr(logg, "failed to build services", err)
	services.DB = dbClient
	services.Redis = redisClient
	services.Idempotency = redisClient
	services.MetricsGatherer = registry

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(sigCtx)
	group.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		// Drain detached handlers after the last request finished publishing.
		shutdownErr := server.Shutdown(shutdownCtx)
		return multierr.Append(shutdownErr, dispatcher.Close(shutdownCtx))
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	publisher events.Publisher,
	notificationRepo notifications.Repository,
) (routes.Services, error) {
	window, err := timeofday.ParseWindow(cfg.Collections.ServiceWindowStart, cfg.Collections.ServiceWindowEnd)
	if err != nil {
		return routes.Services{}, err
	}
	conn := dbClient.DB()

	userSvc, err := users.NewService(users.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	returnPointSvc, err := returnpoints.NewService(returnpoints.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	subscriptionRepo := subscriptions.NewRepository(conn)
	subscriptionSvc, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:      subscriptionRepo,
		DB:        dbClient,
		Users:     userSvc,
		Publisher: publisher,
	})
	if err != nil {
		return routes.Services{}, err
	}
	walletSvc, err := ledger.NewService(ledger.ServiceParams{
		Repo:      ledger.NewRepository(conn),
		DB:        dbClient,
		Users:     userSvc,
		Publisher: publisher,
	})
	if err != nil {
		return routes.Services{}, err
	}
	driverSvc, err := drivers.NewService(drivers.ServiceParams{
		Repo:               drivers.NewRepository(conn),
		DB:                 dbClient,
		EarningPerBagCents: cfg.Collections.EarningPerBagCents,
	})
	if err != nil {
		return routes.Services{}, err
	}

	collectionRepo := collections.NewRepository(conn)
	slotRepo := slots.NewRepository(conn)
	slotSvc, err := slots.NewService(slots.ServiceParams{
		Repo:         slotRepo,
		ReturnPoints: returnPointSvc,
		Collections:  collectionRepo,
		Window:       window,
	})
	if err != nil {
		return routes.Services{}, err
	}
	collectionSvc, err := collections.NewService(collections.ServiceParams{
		Repo:            collectionRepo,
		DB:              dbClient,
		Subscriptions:   subscriptionSvc,
		ReturnPoints:    returnPointSvc,
		Slots:           slotRepo,
		Drivers:         driverSvc,
		Ledger:          walletSvc,
		Users:           userSvc,
		Publisher:       publisher,
		Window:          window,
		MaxVoucherCents: cfg.Collections.MaxVoucherCents,
	})
	if err != nil {
		return routes.Services{}, err
	}
	claimSvc, err := claims.NewService(claims.ServiceParams{
		Repo:      claims.NewRepository(conn),
		Users:     userSvc,
		Publisher: publisher,
	})
	if err != nil {
		return routes.Services{}, err
	}
	notificationSvc, err := notifications.NewService(notificationRepo)
	if err != nil {
		return routes.Services{}, err
	}
	generator, err := recurring.NewGenerator(recurring.Params{
		Logger:      logg,
		DB:          dbClient,
		Slots:       slotRepo,
		Collections: collectionRepo,
		Location:    cfg.Collections.Location(),
	})
	if err != nil {
		return routes.Services{}, err
	}

	guard, err := paymentswebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "payments-webhook")
	if err != nil {
		return routes.Services{}, err
	}
	paymentsSvc, err := paymentswebhook.NewService(paymentswebhook.ServiceParams{
		Subscriptions: subscriptionSvc,
		Prices:        cfg.Payments,
		Guard:         guard,
		Logger:        logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Users:         userSvc,
		Collections:   collectionSvc,
		Wallet:        walletSvc,
		Drivers:       driverSvc,
		Subscriptions: subscriptionSvc,
		Slots:         slotSvc,
		ReturnPoints:  returnPointSvc,
		Claims:        claimSvc,
		Notifications: notificationSvc,
		Recurring:     generator,
		PaymentsHook:  paymentsSvc,
	}, nil
}

func exitOnErr(logg *logger.Logger, msg string, err error) {
	if err != nil {
		logg.Error(context.Background(), msg, err)
		os.Exit(1)
	}
}
