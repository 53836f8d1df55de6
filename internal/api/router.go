/**
 * @description
 * This file sets up the HTTP router for the donation service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, CORS, and
 * optional session resolution.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the browser frontend.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/freedomfund/donation-service/internal/app"
)

// Routes creates and returns the router for the donation service.
func Routes(
	donations *DonationHandlers,
	accounts *AccountHandlers,
	usage *UsageHandlers,
	feed *DonationFeed,
	tokens *app.TokenIssuer,
) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ClientKeyHeader},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(SessionMiddleware(tokens))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":         "healthy",
			"ws_connections": feed.ConnectionCount(),
		})
	})

	r.Route("/api/donations", func(r chi.Router) {
		r.Get("/campaign", donations.ActiveCampaignHandler)
		r.Get("/updates", donations.CampaignUpdatesHandler)
		r.Get("/recent", donations.RecentDonationsHandler)
		r.Post("/create", donations.CreateDonationHandler)
		r.Post("/stripe/webhook", donations.StripeWebhookHandler)
		r.Get("/success", donations.DonationSuccessHandler)
		r.Get("/cancel", donations.DonationCancelHandler)
		r.Get("/{donationID}/qr", donations.DonationQRHandler)
	})

	r.Route("/api/accounts", func(r chi.Router) {
		r.Post("/signup", accounts.SignupHandler)
		r.Post("/login", accounts.LoginHandler)
		r.Post("/logout", accounts.LogoutHandler)
		r.Post("/auth/google", accounts.GoogleAuthHandler)
		r.Post("/auth/facebook", accounts.FacebookAuthHandler)
		r.Get("/me", accounts.MeHandler)
	})

	r.Route("/api/usage", func(r chi.Router) {
		r.Get("/", usage.GetUsageHandler)
		r.Post("/consume", usage.ConsumeUsageHandler)
	})

	r.Get("/ws/donations", feed.ServeHTTP)

	return r
}
