package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/starquest/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса StarQuest.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/parents/register", h.Register)
		r.Post("/parents/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/children/{childID}/balance", h.GetChildBalance)
			r.Delete("/children/{childID}", h.DeleteChild)

			r.Get("/credit/tiers", h.GetInterestTiers)
			r.Post("/credit/settlement", h.RunSettlement)

			r.Get("/activities/pending", h.GetPendingActivities)
			r.Post("/activities/review", h.ReviewActivities)

			r.Get("/redemptions/pending", h.GetPendingRedemptions)
			r.Post("/redemptions/review", h.ReviewRedemptions)

			r.Post("/family/invites", h.InviteFamilyMember)

			r.Post("/demo/snapshot", h.SaveDemoSnapshot)
			r.Post("/demo/restore", h.RestoreDemoData)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
