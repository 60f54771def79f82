package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterConfig collects the handlers and cross-cutting pieces the router
// mounts. Nil handlers are skipped, which keeps tests free to wire only the
// routes they exercise.
type RouterConfig struct {
	Auth          *AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	Members       *MemberHandler
	Resources     *ResourceHandler

	Sessions   SessionValidator
	Health     http.HandlerFunc
	Metrics    http.Handler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP surface. Login, health and metrics are public;
// everything else sits behind session validation.
func NewRouter(cfg RouterConfig) http.Handler {
	router := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			router.Use(mw)
		}
	}

	if cfg.Auth != nil {
		router.Post("/login", cfg.Auth.Login)
	}
	if cfg.Health != nil {
		router.Get("/healthz", cfg.Health)
	}
	if cfg.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	router.Group(func(r chi.Router) {
		if cfg.Sessions != nil {
			r.Use(RequireSession(cfg.Sessions, nil))
		}

		if cfg.Auth != nil {
			r.Post("/logout", cfg.Auth.Logout)
		}

		if cfg.Events != nil {
			r.Get("/events", cfg.Events.List)
			r.Post("/events", cfg.Events.Create)
			r.Get("/events/{event_id}", cfg.Events.Get)
			r.Post("/events/{event_id}/status", cfg.Events.Transition)
		}

		if cfg.Registrations != nil {
			r.Post("/events/{event_id}/register", cfg.Registrations.Register)
			r.Get("/events/{event_id}/registrations", cfg.Registrations.ListByEvent)
			r.Post("/registrations/{registration_id}/cancel", cfg.Registrations.Cancel)
			r.Post("/check-in", cfg.Registrations.CheckIn)
		}

		if cfg.Members != nil {
			r.Get("/members", cfg.Members.List)
			r.Post("/members", cfg.Members.Create)
			r.Get("/members/{member_id}", cfg.Members.Get)
			r.Post("/members/{member_id}/status", cfg.Members.UpdateStatus)
		}

		if cfg.Resources != nil {
			r.Get("/resources", cfg.Resources.ListResources)
			r.Post("/resources", cfg.Resources.CreateResource)
			r.Get("/reservations", cfg.Resources.ListReservations)
			r.Post("/reservations", cfg.Resources.RequestReservation)
			r.Post("/reservations/{reservation_id}/decide", cfg.Resources.DecideReservation)
			r.Post("/reservations/{reservation_id}/cancel", cfg.Resources.CancelReservation)
		}
	})

	return router
}
