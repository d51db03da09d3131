package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/courseloop/courseloop/internal/auth"
	"github.com/courseloop/courseloop/internal/catalog"
	"github.com/courseloop/courseloop/internal/checkout"
	"github.com/courseloop/courseloop/internal/download"
	"github.com/courseloop/courseloop/internal/entitlement"
	"github.com/courseloop/courseloop/internal/transport/middleware"
	"github.com/courseloop/courseloop/internal/transport/swagger"
	"github.com/courseloop/courseloop/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	catalogHandler *catalog.Handler,
	checkoutHandler *checkout.Handler,
	entitlementHandler *entitlement.Handler,
	downloadHandler *download.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	// Global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec and Swagger UI outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Public catalog browsing (no auth required)
		if catalogHandler != nil {
			r.Get("/items", catalogHandler.ListItems)
			r.Get("/items/{id}", catalogHandler.GetItem)
		}

		if authHandler != nil {
			// Protected routes
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				// Catalog management requires the manage_catalog permission
				if catalogHandler != nil {
					pr.Group(func(mr chi.Router) {
						mr.Use(auth.RequirePermission(auth.PermManageCatalog))
						mr.Post("/items", catalogHandler.CreateItem)
						mr.Patch("/items/{id}", catalogHandler.UpdateItem)
					})
				}

				// Purchase flow: checkout, verification, download
				if checkoutHandler != nil {
					pr.Post("/items/{id}/checkout", checkoutHandler.CreateCheckout)
				}
				if entitlementHandler != nil {
					pr.Post("/items/{id}/payment/verify", entitlementHandler.VerifyPayment)
					pr.Get("/purchases", entitlementHandler.ListPurchases)
					pr.Patch("/purchases/{id}/progress", entitlementHandler.UpdateProgress)
				}
				if downloadHandler != nil {
					pr.Post("/items/{id}/download", downloadHandler.Download)
				}
			})
		}
	})
}
