package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/orghub-api/internal/application/approval"
	"github.com/orghub-api/internal/application/budget"
	"github.com/orghub-api/internal/application/device"
	"github.com/orghub-api/internal/application/dispatch"
	"github.com/orghub-api/internal/application/event"
	"github.com/orghub-api/internal/application/notification"
	"github.com/orghub-api/internal/application/user"
	"github.com/orghub-api/internal/config"
	"github.com/orghub-api/internal/domain"
	jwtinfra "github.com/orghub-api/internal/infrastructure/jwt"
	"github.com/orghub-api/internal/transport/http/handler"
	appmiddleware "github.com/orghub-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	DeviceRepo       DeviceRepository
	NotificationRepo NotificationRepository
	EventRepo        EventRepository
	BudgetRepo       BudgetRepository
	ApprovalRepo     ApprovalRepository
	ObjectStore      ObjectStore
	Dispatcher       dispatch.Service
	JWTProvider      *jwtinfra.Provider
	Logger           *slog.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10. Applied to the broadcast endpoint,
	// which fans out to the whole membership per call.
	broadcastRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	// Looser limit for the unauthenticated surface.
	publicRL := appmiddleware.NewRateLimiter(rate.Limit(20), 40)

	deviceSvc := device.NewService(deps.DeviceRepo)
	notifSvc := notification.NewService(deps.NotificationRepo)
	userSvc := user.NewService(deps.UserRepo, deps.Dispatcher, deps.Logger)
	eventSvc := event.NewService(deps.EventRepo, deps.UserRepo, deps.Dispatcher, deps.Logger)
	budgetSvc := budget.NewService(deps.BudgetRepo, deps.UserRepo, deps.ObjectStore, deps.Dispatcher, deps.Logger)
	approvalSvc := approval.NewService(deps.ApprovalRepo, deps.UserRepo, deps.Dispatcher, deps.Logger)

	healthH := handler.NewHealthHandler()
	deviceH := handler.NewDeviceHandler(deviceSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	userH := handler.NewUserHandler(userSvc)
	eventH := handler.NewEventHandler(eventSvc)
	budgetH := handler.NewBudgetHandler(budgetSvc)
	approvalH := handler.NewApprovalHandler(approvalSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.With(publicRL.Limit).Get("/health-check", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/me", userH.GetMe)
			r.Get("/users/me/preferences", userH.GetPreferences)
			r.Put("/users/me/preferences", userH.UpdatePreferences)

			r.Post("/devices", deviceH.Register)
			r.Get("/devices", deviceH.List)
			r.Delete("/devices/{id}", deviceH.Deactivate)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Get("/events", eventH.List)
			r.Get("/events/{id}", eventH.Get)

			r.Get("/approvals/{id}", approvalH.Get)
			r.Post("/approvals", approvalH.Submit)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.With(broadcastRL.Limit).Post("/announcements", userH.Announce)

				r.Post("/events", eventH.Create)
				r.Put("/events/{id}", eventH.Update)

				r.Get("/budgets", budgetH.List)
				r.Get("/budgets/{id}", budgetH.Get)
				r.Post("/budgets", budgetH.Create)
				r.Post("/budgets/{id}/receipt", budgetH.UploadReceipt)
				r.Get("/budgets/{id}/receipt", budgetH.DownloadReceipt)
				r.Delete("/budgets/{id}/receipt", budgetH.RemoveReceipt)

				r.Get("/approvals", approvalH.ListPending)
				r.Put("/approvals/{id}", approvalH.Decide)
			})
		})
	})

	return r
}
