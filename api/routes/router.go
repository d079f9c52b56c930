package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greencredits/greencredits-backend/api/controllers"
	collectioncontrollers "github.com/greencredits/greencredits-backend/api/controllers/collections"
	subscriptioncontrollers "github.com/greencredits/greencredits-backend/api/controllers/subscriptions"
	webhookcontrollers "github.com/greencredits/greencredits-backend/api/controllers/webhooks"
	"github.com/greencredits/greencredits-backend/api/middleware"
	"github.com/greencredits/greencredits-backend/internal/claims"
	"github.com/greencredits/greencredits-backend/internal/collections"
	"github.com/greencredits/greencredits-backend/internal/drivers"
	"github.com/greencredits/greencredits-backend/internal/ledger"
	"github.com/greencredits/greencredits-backend/internal/notifications"
	"github.com/greencredits/greencredits-backend/internal/recurring"
	"github.com/greencredits/greencredits-backend/internal/returnpoints"
	"github.com/greencredits/greencredits-backend/internal/slots"
	subscriptionsvc "github.com/greencredits/greencredits-backend/internal/subscriptions"
	"github.com/greencredits/greencredits-backend/internal/users"
	"github.com/greencredits/greencredits-backend/pkg/config"
	"github.com/greencredits/greencredits-backend/pkg/enums"
	"github.com/greencredits/greencredits-backend/pkg/logger"
)

// Services bundles everything the router hands to controllers.
type Services struct {
	Users           *users.Service
	Collections     collections.Service
	Wallet          ledger.Service
	Drivers         drivers.Service
	Subscriptions   subscriptionsvc.Service
	Slots           slots.Service
	ReturnPoints    *returnpoints.Service
	Claims          claims.Service
	Notifications   notifications.Service
	Recurring       *recurring.Generator
	PaymentsHook    webhookcontrollers.PaymentsWebhookService
	DB              controllers.Pinger
	Redis           controllers.Pinger
	Idempotency     middleware.IdempotencyStore
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": svc.DB,
			"redis":    svc.Redis,
		}))
	})

	if svc.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentsWebhook(svc.PaymentsHook, logg))
	})

	if !cfg.App.IsProd() {
		r.Post("/api/v1/dev/token", controllers.DevToken(svc.Users, svc.Drivers, cfg.JWT, logg))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(svc.Idempotency, logg))

		r.Route("/collections", func(r chi.Router) {
			r.Post("/", collectioncontrollers.Create(svc.Collections, logg))
			r.Get("/", collectioncontrollers.ListMine(svc.Collections, logg))
			r.Get("/{collectionId}", collectioncontrollers.Get(svc.Collections, logg))
			r.Post("/{collectionId}/cancel", collectioncontrollers.Cancel(svc.Collections, logg))
			r.Post("/{collectionId}/archive", collectioncontrollers.Archive(svc.Collections, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/balance", controllers.WalletBalance(svc.Wallet, logg))
			r.Get("/transactions", controllers.WalletHistory(svc.Wallet, logg))
			r.Post("/donate", controllers.WalletDonate(svc.Wallet, logg))
			r.Post("/redeem", controllers.WalletRedeem(svc.Wallet, logg))
		})

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/", subscriptioncontrollers.Fetch(svc.Subscriptions, logg))
			r.Post("/cancel", subscriptioncontrollers.Cancel(svc.Subscriptions, logg))
		})

		r.Route("/slots/me", func(r chi.Router) {
			r.Get("/", controllers.SlotGet(svc.Slots, logg))
			r.Put("/", controllers.SlotUpsert(svc.Slots, logg))
			r.Post("/pause", controllers.SlotPause(svc.Slots, logg))
			r.Post("/resume", controllers.SlotResume(svc.Slots, logg))
			r.Post("/cancel", controllers.SlotCancel(svc.Slots, logg))
		})

		r.Route("/return-points", func(r chi.Router) {
			r.Get("/", controllers.ReturnPointList(svc.ReturnPoints, logg))
			r.Get("/{returnPointId}", controllers.ReturnPointGet(svc.ReturnPoints, logg))
		})

		r.Route("/claims", func(r chi.Router) {
			r.Post("/", controllers.ClaimCreate(svc.Claims, logg))
			r.Get("/", controllers.ClaimListMine(svc.Claims, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
		})

		r.Route("/driver", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleDriver))
			r.Get("/profile", controllers.DriverProfile(svc.Drivers, logg))
			r.Patch("/profile", controllers.DriverUpdateProfile(svc.Drivers, logg))
			r.Get("/summary", controllers.DriverSummary(svc.Drivers, logg))
			r.Get("/earnings", controllers.DriverEarnings(svc.Drivers, logg))
			r.Get("/payouts", controllers.DriverPayouts(svc.Drivers, logg))
			r.Get("/collections", collectioncontrollers.DriverList(svc.Collections, logg))
			r.Post("/collections/{collectionId}/collected", collectioncontrollers.DriverMarkCollected(svc.Collections, logg))
			r.Post("/collections/{collectionId}/completed", collectioncontrollers.DriverMarkCompleted(svc.Collections, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Route("/collections", func(r chi.Router) {
				r.Get("/", collectioncontrollers.AdminList(svc.Collections, logg))
				r.Get("/unassigned", collectioncontrollers.AdminListUnassigned(svc.Collections, logg))
				r.Post("/{collectionId}/assign", collectioncontrollers.AdminAssignDriver(svc.Collections, logg))
				r.Post("/{collectionId}/status", collectioncontrollers.AdminTransition(svc.Collections, logg))
			})
			r.Route("/drivers", func(r chi.Router) {
				r.Get("/", controllers.AdminListDrivers(svc.Drivers, logg))
				r.Get("/{driverId}/summary", controllers.AdminDriverSummary(svc.Drivers, logg))
				r.Post("/{driverId}/payouts", controllers.AdminCreatePayout(svc.Drivers, logg))
			})
			r.Post("/recurring/generate", controllers.AdminGenerateRecurring(svc.Recurring, cfg.Recurring.HorizonWeeks, logg))
			r.Post("/users/{userId}/subscription/activate", subscriptioncontrollers.AdminActivate(svc.Subscriptions, logg))
			r.Post("/wallet/adjustments", controllers.AdminWalletAdjustment(svc.Wallet, logg))
			r.Route("/claims", func(r chi.Router) {
				r.Get("/", controllers.AdminClaimList(svc.Claims, logg))
				r.Patch("/{claimId}", controllers.AdminClaimUpdate(svc.Claims, logg))
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.AdminListNotifications(svc.Notifications, logg))
				r.Post("/", controllers.AdminCreateNotification(svc.Notifications, logg))
			})
		})
	})

	return r
}
