/**
 * @description
 * This file contains the HTTP handlers for the donation flow: campaign read
 * endpoints, donation creation, the Stripe webhook, and the checkout redirect
 * acknowledgments. Handlers parse requests, call the application service, and
 * translate service errors into HTTP status codes.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/skip2/go-qrcode: PNG QR rendering for pending checkout links.
 * - internal/app, internal/domain, internal/store: Service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/freedomfund/donation-service/internal/app"
	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
	"github.com/freedomfund/donation-service/pkg/stripeclient"
)

// webhookBodyLimit caps how much of a webhook delivery we will read.
const webhookBodyLimit = 1 << 20

// DonationHandlers holds the dependencies the donation endpoints use.
type DonationHandlers struct {
	service       *app.Service
	limiter       *app.RedisDonationRateLimiter
	webhookSecret string
	createLimit   int
}

// NewDonationHandlers creates a new instance of DonationHandlers. The limiter
// may be nil, which disables the anonymous submission throttle.
func NewDonationHandlers(service *app.Service, limiter *app.RedisDonationRateLimiter, webhookSecret string, createLimit int) *DonationHandlers {
	return &DonationHandlers{
		service:       service,
		limiter:       limiter,
		webhookSecret: webhookSecret,
		createLimit:   createLimit,
	}
}

// ActiveCampaignHandler serves the read model for the current campaign.
func (h *DonationHandlers) ActiveCampaignHandler(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.ActiveCampaign(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			writeError(w, http.StatusNotFound, "No active campaign")
			return
		}
		log.Printf("level=error component=api endpoint=campaign err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not load campaign")
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// CampaignUpdatesHandler serves campaign updates, newest first.
func (h *DonationHandlers) CampaignUpdatesHandler(w http.ResponseWriter, r *http.Request) {
	updates, err := h.service.CampaignUpdates(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=updates err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not load campaign updates")
		return
	}
	writeJSON(w, http.StatusOK, updates)
}

// RecentDonationsHandler serves the latest completed public donations.
func (h *DonationHandlers) RecentDonationsHandler(w http.ResponseWriter, r *http.Request) {
	donations, err := h.service.RecentDonations(r.Context())
	if err != nil {
		log.Printf("level=error component=api endpoint=recent_donations err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not load recent donations")
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// CreateDonationHandler validates a donation submission, opens a checkout
// session, and returns the redirect URL. Anonymous callers are rate limited
// per IP to protect the checkout creation path.
func (h *DonationHandlers) CreateDonationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, authenticated := GetUserID(ctx)
	if !authenticated && h.limiter != nil {
		count, retryAfter, err := h.limiter.ConsumeRateLimit(ctx, "create_donation", remoteIP(r), h.createLimit, time.Minute)
		if err != nil {
			// Fail open: a cache outage must not block real donors.
			log.Printf("level=warn component=api endpoint=create_donation msg=\"rate limiter unavailable\" err=%v", err)
		} else if h.createLimit > 0 && count > h.createLimit {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "Too many donation attempts. Please wait a moment and try again.")
			return
		}
	}

	var req domain.CreateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_donation outcome=reject reason=invalid_json err=%v", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var userIDPtr *uuid.UUID
	if authenticated {
		userIDPtr = &userID
	}

	resp, err := h.service.CreateDonation(ctx, req, userIDPtr)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNothingToCharge),
			errors.Is(err, app.ErrAmountTooSmall),
			errors.Is(err, app.ErrAmountTooLarge),
			errors.Is(err, app.ErrAmountBelowTicket):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrCampaignNotFound):
			writeError(w, http.StatusNotFound, "No active campaign")
		default:
			log.Printf("level=error component=api endpoint=create_donation err=%v", err)
			writeError(w, http.StatusBadGateway, "Could not start checkout. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// stripeSessionObject is the slice of the checkout session payload the
// webhook handler needs.
type stripeSessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// StripeWebhookHandler verifies and processes Stripe event deliveries.
// Handlers must be idempotent: Stripe retries until it sees a 2xx.
func (h *DonationHandlers) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	event, err := stripeclient.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Printf("level=warn component=api endpoint=stripe_webhook outcome=reject reason=bad_signature err=%v", err)
		writeError(w, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(w, r, event)
	case "charge.refunded":
		h.handleChargeRefunded(w, r, event)
	default:
		log.Printf("level=info component=api endpoint=stripe_webhook msg=\"ignoring event\" event_type=%s event_id=%s", event.Type, event.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *DonationHandlers) handleCheckoutCompleted(w http.ResponseWriter, r *http.Request, event stripeclient.Event) {
	var session stripeSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed session object")
		return
	}

	donationID, err := uuid.Parse(session.Metadata["donation_id"])
	if err != nil {
		// Sessions created outside this service have no donation to complete.
		log.Printf("level=warn component=api endpoint=stripe_webhook msg=\"session without donation_id metadata\" session_id=%s", session.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := h.service.HandleCheckoutCompleted(r.Context(), donationID, session.PaymentIntent); err != nil {
		log.Printf("level=error component=api endpoint=stripe_webhook msg=\"completion failed\" donation_id=%s err=%v", donationID, err)
		writeError(w, http.StatusInternalServerError, "Could not process event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func (h *DonationHandlers) handleChargeRefunded(w http.ResponseWriter, r *http.Request, event stripeclient.Event) {
	var charge struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Object, &charge); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed charge object")
		return
	}

	donationID, err := uuid.Parse(charge.Metadata["donation_id"])
	if err != nil {
		log.Printf("level=warn component=api endpoint=stripe_webhook msg=\"refund without donation_id metadata\" charge_id=%s", charge.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if err := h.service.HandleChargeRefunded(r.Context(), donationID); err != nil {
		log.Printf("level=error component=api endpoint=stripe_webhook msg=\"refund processing failed\" donation_id=%s err=%v", donationID, err)
		writeError(w, http.StatusInternalServerError, "Could not process event")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

// DonationSuccessHandler acknowledges a completed checkout redirect. The
// response is informational; the webhook owns the actual payment outcome.
func (h *DonationHandlers) DonationSuccessHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	ack := h.service.AcknowledgeSuccess(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, ack)
}

// DonationCancelHandler acknowledges an abandoned checkout. The pending
// donation stays in place until the expiry job sweeps it.
func (h *DonationHandlers) DonationCancelHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// DonationQRHandler renders a PNG QR code pointing at the checkout URL of a
// still-pending donation, so the payment link can be handed to another device.
func (h *DonationHandlers) DonationQRHandler(w http.ResponseWriter, r *http.Request) {
	donationID, err := uuid.Parse(chi.URLParam(r, "donationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid donation ID")
		return
	}

	checkoutURL, err := h.service.PendingCheckoutURL(r.Context(), donationID)
	if err != nil {
		if errors.Is(err, store.ErrDonationNotFound) {
			writeError(w, http.StatusNotFound, "No pending donation with that ID")
			return
		}
		log.Printf("level=error component=api endpoint=donation_qr donation_id=%s err=%v", donationID, err)
		writeError(w, http.StatusInternalServerError, "Could not load donation")
		return
	}

	png, err := qrcode.Encode(checkoutURL, qrcode.Medium, 256)
	if err != nil {
		log.Printf("level=error component=api endpoint=donation_qr msg=\"qr encode failed\" donation_id=%s err=%v", donationID, err)
		writeError(w, http.StatusInternalServerError, "Could not render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// writeJSON is a helper for writing JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
