/**
 * @description
 * Donation domain models and the DTOs for the create-donation flow.
 *
 * @notes
 * - A donation's amount is the grand total (ticket subtotal plus any extra
 *   donation). The extra portion is derived, never stored separately.
 * - Payment status follows the hosted-checkout lifecycle: a donation is
 *   created as 'pending', becomes 'completed' when the Stripe webhook
 *   confirms payment, 'expired' when abandoned, and 'refunded' after a refund.
 */

package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Payment statuses for a donation.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusExpired   = "expired"
)

// Donation is the ledger record for a single contribution, covering both
// plain donations and ticket purchases.
type Donation struct {
	ID                    uuid.UUID  `json:"id"`
	CampaignID            uuid.UUID  `json:"campaign"`
	AmountCents           int64      `json:"-"`
	TicketQuantity        int        `json:"ticket_quantity"`
	DonorName             string     `json:"donor_name,omitempty"`
	DonorEmail            string     `json:"-"`
	UserID                *uuid.UUID `json:"-"`
	IsAnonymous           bool       `json:"is_anonymous"`
	Message               string     `json:"message,omitempty"`
	StripeSessionID       string     `json:"-"`
	StripePaymentIntentID string     `json:"-"`
	CheckoutURL           string     `json:"-"`
	PaymentStatus         string     `json:"-"`
	ReceiptSent           bool       `json:"-"`
	ReceiptSentAt         *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"-"`
}

// DonationProjection is the public shape of a donation used by the recent
// supporters list. Donor email never leaves the service.
type DonationProjection struct {
	ID             uuid.UUID `json:"id"`
	Amount         float64   `json:"amount"`
	TicketQuantity int       `json:"ticket_quantity"`
	DonorName      string    `json:"donor_name"`
	IsAnonymous    bool      `json:"is_anonymous"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// Projection builds the public read model for a donation.
func (d *Donation) Projection() DonationProjection {
	return DonationProjection{
		ID:             d.ID,
		Amount:         CentsToAmount(d.AmountCents),
		TicketQuantity: d.TicketQuantity,
		DonorName:      d.DonorName,
		IsAnonymous:    d.IsAnonymous,
		Message:        d.Message,
		CreatedAt:      d.CreatedAt,
	}
}

// CreateDonationRequest is the DTO for POST /api/donations/create. Amount is
// the grand total in currency units: ticket subtotal plus any extra donation.
type CreateDonationRequest struct {
	Amount         float64 `json:"amount"`
	TicketQuantity int     `json:"ticket_quantity"`
	DonorName      string  `json:"donor_name"`
	DonorEmail     string  `json:"donor_email"`
	Message        string  `json:"message"`
	IsAnonymous    bool    `json:"is_anonymous"`
}

// CreateDonationResponse carries the hosted checkout redirect for a newly
// created donation.
type CreateDonationResponse struct {
	CheckoutURL string    `json:"checkout_url"`
	DonationID  uuid.UUID `json:"donation_id"`
}

// AmountToCents converts a currency-unit amount to cents, rounding to the
// nearest cent.
func AmountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CentsToAmount converts cents to currency units.
func CentsToAmount(cents int64) float64 {
	return float64(cents) / 100
}
