package api

import (
	"github.com/avosseberg/gatehouse-be/internal/api/handlers"
	"github.com/avosseberg/gatehouse-be/internal/auth"
	"github.com/avosseberg/gatehouse-be/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(accountService services.AccountServiceProvider, sessionService services.SessionServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService, sessionService)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// Registration is the unauthenticated entry point: it creates
		// the account and returns its first session.
		r.Post("/accounts", accountHandler.Register)
		r.Post("/sessions", accountHandler.Login)

		// Routes below require a valid session token.
		r.Group(func(r chi.Router) {
			r.Use(auth.SessionMiddleware(sessionService))
			r.Get("/accounts/me", accountHandler.GetMe)
			r.Put("/accounts/me", accountHandler.Update)
			r.Delete("/accounts/me", accountHandler.Delete)
			r.Get("/accounts/{id}", accountHandler.Get)
		})
	})

	return r
}
