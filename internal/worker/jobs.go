/**
 * @description
 * Background jobs for the donation worker: the RabbitMQ handler that turns
 * donation.completed events into emails, and the cron job that expires
 * abandoned pending donations.
 */

package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/freedomfund/donation-service/internal/mailer"
	"github.com/freedomfund/donation-service/internal/store"
)

// Jobs holds the dependencies the worker's handlers need.
type Jobs struct {
	repo          store.Repository
	mailer        *mailer.DonationMailer
	logger        *slog.Logger
	pendingMaxAge time.Duration
}

// NewJobs creates the worker job set.
func NewJobs(repo store.Repository, donationMailer *mailer.DonationMailer, logger *slog.Logger, pendingMaxAge time.Duration) *Jobs {
	return &Jobs{
		repo:          repo,
		mailer:        donationMailer,
		logger:        logger,
		pendingMaxAge: pendingMaxAge,
	}
}

// donationCompletedEvent mirrors the payload published by the server.
type donationCompletedEvent struct {
	DonationID uuid.UUID `json:"donation_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HandleDonationCompleted processes one donation.completed delivery. The
// return value drives ack/nack: malformed payloads are acked (a redelivery
// cannot fix them), transient failures are nacked for requeue.
func (j *Jobs) HandleDonationCompleted(body []byte) bool {
	var event donationCompletedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		j.logger.Error("discarding malformed donation event", "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.mailer.ProcessCompletedDonation(ctx, event.DonationID); err != nil {
		j.logger.Error("donation email processing failed", "donation_id", event.DonationID, "error", err)
		return false
	}

	j.logger.Info("donation emails processed", "donation_id", event.DonationID, "amount", event.Amount)
	return true
}

// ExpireStalePendingDonations sweeps pending donations older than the
// configured age into the expired state.
func (j *Jobs) ExpireStalePendingDonations() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := j.repo.ExpireStalePendingDonations(ctx, time.Now().Add(-j.pendingMaxAge))
	if err != nil {
		j.logger.Error("pending donation expiry failed", "error", err)
		return
	}
	if expired > 0 {
		j.logger.Info("expired stale pending donations", "count", expired)
	}
}
