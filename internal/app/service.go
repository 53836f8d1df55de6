/**
 * @description
 * This file contains the core business logic for the donation-service. The `Service`
 * struct orchestrates the donation flow, coordinating between the database
 * repository, the Stripe API client, and the message broker.
 *
 * Key features:
 * - Implements the create-donation use case: validation, pending record,
 *   hosted checkout session, checkout_url response.
 * - Processes Stripe webhook events, completing donations idempotently and
 *   publishing events to RabbitMQ for asynchronous processing by the worker.
 * - Serves the campaign read models consumed by the page.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/stripeclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
	"github.com/freedomfund/donation-service/pkg/rabbitmq"
	"github.com/freedomfund/donation-service/pkg/stripeclient"
)

// DonationEventExchange is the topic exchange all donation lifecycle events
// are published to.
const DonationEventExchange = "donation.events"

// Routing keys for donation lifecycle events.
const (
	RoutingKeyDonationCompleted = "donation.completed"
	RoutingKeyDonationRefunded  = "donation.refunded"
)

var (
	ErrNothingToCharge   = errors.New("please select at least one ticket or enter a donation amount")
	ErrAmountTooSmall    = errors.New("donation amount is below the minimum")
	ErrAmountTooLarge    = errors.New("donation amount exceeds the maximum")
	ErrAmountBelowTicket = errors.New("amount is less than the ticket subtotal")
	ErrNoCheckoutURL     = errors.New("checkout session has no redirect URL")
)

// CheckoutClient is the subset of the Stripe client the service depends on.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, params stripeclient.CheckoutSessionParams) (*stripeclient.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripeclient.CheckoutSession, error)
}

// DonationBroadcaster receives completed donations for live delivery to
// connected page viewers.
type DonationBroadcaster interface {
	BroadcastDonation(projection domain.DonationProjection)
}

// Config carries the tunables the service needs from process configuration.
type Config struct {
	TicketPriceCents       int64
	MaxDonationAmountCents int64
	FrontendURL            string
	FreeMatchLimit         int
	FreeRandomizeLimit     int
}

// Service provides the core business logic for the donation flow.
type Service struct {
	repo          store.Repository
	checkout      CheckoutClient
	eventProducer rabbitmq.Publisher
	broadcaster   DonationBroadcaster
	cfg           Config
}

// NewService creates a new donation service instance. The producer and
// broadcaster may be nil; event publishing and live broadcast then become
// no-ops rather than failing the payment flow.
func NewService(repo store.Repository, checkout CheckoutClient, producer rabbitmq.Publisher, broadcaster DonationBroadcaster, cfg Config) *Service {
	return &Service{
		repo:          repo,
		checkout:      checkout,
		eventProducer: producer,
		broadcaster:   broadcaster,
		cfg:           cfg,
	}
}

// ActiveCampaign returns the read model for the currently active campaign.
func (s *Service) ActiveCampaign(ctx context.Context) (*domain.CampaignProjection, error) {
	campaign, err := s.repo.FindActiveCampaign(ctx)
	if err != nil {
		return nil, err
	}
	ticketsSold, err := s.repo.CountTicketsSold(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets sold: %w", err)
	}
	projection := campaign.Projection(ticketsSold)
	return &projection, nil
}

// CampaignUpdates returns the updates for the active campaign, newest first.
// A missing campaign yields an empty list, not an error; the page renders the
// section as empty.
func (s *Service) CampaignUpdates(ctx context.Context) ([]domain.CampaignUpdate, error) {
	campaign, err := s.repo.FindActiveCampaign(ctx)
	if err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return []domain.CampaignUpdate{}, nil
		}
		return nil, err
	}
	return s.repo.ListCampaignUpdates(ctx, campaign.ID)
}

// RecentDonations returns the latest completed, non-anonymous donations.
func (s *Service) RecentDonations(ctx context.Context) ([]domain.DonationProjection, error) {
	donations, err := s.repo.ListRecentDonations(ctx, 10)
	if err != nil {
		return nil, err
	}
	projections := make([]domain.DonationProjection, 0, len(donations))
	for i := range donations {
		projections = append(projections, donations[i].Projection())
	}
	return projections, nil
}

// CreateDonation validates the request, records a pending donation, and opens
// a Stripe checkout session for it. The returned checkout URL is where the
// caller must send the donor; payment itself happens off-origin.
func (s *Service) CreateDonation(ctx context.Context, req domain.CreateDonationRequest, userID *uuid.UUID) (*domain.CreateDonationResponse, error) {
	amountCents := domain.AmountToCents(req.Amount)
	ticketSubtotalCents := int64(req.TicketQuantity) * s.cfg.TicketPriceCents

	if req.TicketQuantity < 0 {
		return nil, ErrNothingToCharge
	}
	if req.TicketQuantity == 0 && amountCents <= 0 {
		return nil, ErrNothingToCharge
	}
	// Minimum of one currency unit; Stripe rejects sub-dollar charges anyway.
	if amountCents < 100 {
		return nil, ErrAmountTooSmall
	}
	if amountCents > s.cfg.MaxDonationAmountCents {
		return nil, ErrAmountTooLarge
	}
	if amountCents < ticketSubtotalCents {
		return nil, ErrAmountBelowTicket
	}
	extraDonationCents := amountCents - ticketSubtotalCents

	campaign, err := s.repo.FindActiveCampaign(ctx)
	if err != nil {
		return nil, err
	}

	donorName := req.DonorName
	donorEmail := req.DonorEmail
	if req.IsAnonymous {
		// Anonymity wins over whatever is in the fields: identifying data is
		// neither stored nor forwarded to Stripe.
		donorName = ""
		donorEmail = ""
	}

	donation := &domain.Donation{
		ID:             uuid.New(),
		CampaignID:     campaign.ID,
		AmountCents:    amountCents,
		TicketQuantity: req.TicketQuantity,
		DonorName:      donorName,
		DonorEmail:     donorEmail,
		UserID:         userID,
		IsAnonymous:    req.IsAnonymous,
		Message:        req.Message,
		PaymentStatus:  domain.PaymentStatusPending,
	}
	if err := s.repo.CreateDonation(ctx, donation); err != nil {
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}

	log.Printf("level=info component=app msg=\"created donation\" donation_id=%s amount_cents=%d tickets=%d", donation.ID, amountCents, req.TicketQuantity)

	lineItems := []stripeclient.LineItem{}
	if req.TicketQuantity > 0 {
		lineItems = append(lineItems, stripeclient.LineItem{
			Name:            "Event Ticket - " + campaign.Title,
			UnitAmountCents: s.cfg.TicketPriceCents,
			Quantity:        int64(req.TicketQuantity),
		})
	}
	if extraDonationCents > 0 {
		lineItems = append(lineItems, stripeclient.LineItem{
			Name:            "Donation to " + campaign.Title,
			UnitAmountCents: extraDonationCents,
			Quantity:        1,
		})
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, stripeclient.CheckoutSessionParams{
		LineItems:  lineItems,
		SuccessURL: s.cfg.FrontendURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.FrontendURL + "/cancel",
		Metadata: map[string]string{
			"donation_id":     donation.ID.String(),
			"campaign_id":     campaign.ID.String(),
			"ticket_quantity": fmt.Sprintf("%d", req.TicketQuantity),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("payment setup failed: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	if err := s.repo.AttachCheckoutSession(ctx, donation.ID, session.ID, session.URL); err != nil {
		return nil, fmt.Errorf("failed to attach checkout session: %w", err)
	}

	log.Printf("level=info component=app msg=\"checkout session created\" donation_id=%s session_id=%s", donation.ID, session.ID)

	return &domain.CreateDonationResponse{
		CheckoutURL: session.URL,
		DonationID:  donation.ID,
	}, nil
}

// DonationCompletedEvent is the payload published when a donation completes.
type DonationCompletedEvent struct {
	DonationID uuid.UUID `json:"donation_id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	Amount     float64   `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HandleCheckoutCompleted processes a verified checkout.session.completed
// event. Completion is idempotent: redeliveries after the first are
// acknowledged without side effects.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, donationID uuid.UUID, paymentIntentID string) error {
	completedNow, err := s.repo.CompleteDonation(ctx, donationID, paymentIntentID)
	if err != nil {
		return err
	}
	if !completedNow {
		log.Printf("level=info component=app msg=\"donation already completed, skipping\" donation_id=%s", donationID)
		return nil
	}

	log.Printf("level=info component=app msg=\"donation marked completed\" donation_id=%s", donationID)

	donation, err := s.repo.FindDonationByID(ctx, donationID)
	if err != nil {
		return err
	}

	if s.eventProducer != nil {
		event := DonationCompletedEvent{
			DonationID: donation.ID,
			CampaignID: donation.CampaignID,
			Amount:     domain.CentsToAmount(donation.AmountCents),
			OccurredAt: time.Now().UTC(),
		}
		if err := s.eventProducer.Publish(ctx, DonationEventExchange, RoutingKeyDonationCompleted, event); err != nil {
			// Email delivery is best-effort; the payment itself already settled.
			log.Printf("level=warn component=app msg=\"failed to publish donation.completed\" donation_id=%s err=%v", donation.ID, err)
		}
	}

	if s.broadcaster != nil && !donation.IsAnonymous {
		s.broadcaster.BroadcastDonation(donation.Projection())
	}
	return nil
}

// HandleChargeRefunded processes a refund notification for a donation,
// reversing its contribution to the campaign total.
func (s *Service) HandleChargeRefunded(ctx context.Context, donationID uuid.UUID) error {
	refunded, err := s.repo.RefundDonation(ctx, donationID)
	if err != nil {
		return err
	}
	if !refunded {
		log.Printf("level=info component=app msg=\"refund for non-completed donation, skipping\" donation_id=%s", donationID)
		return nil
	}
	log.Printf("level=info component=app msg=\"donation refunded\" donation_id=%s", donationID)
	return nil
}

// CheckoutAcknowledgment summarizes a finished checkout for the success page.
type CheckoutAcknowledgment struct {
	Status     string  `json:"status"`
	DonationID string  `json:"donation_id,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
}

// AcknowledgeSuccess looks up the checkout session behind a success redirect.
// Any lookup failure degrades to a bare acknowledgment: the payment outcome
// is owned by the webhook, not this informational view.
func (s *Service) AcknowledgeSuccess(ctx context.Context, sessionID string) CheckoutAcknowledgment {
	ack := CheckoutAcknowledgment{Status: "success"}
	if sessionID == "" {
		return ack
	}
	session, err := s.checkout.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		log.Printf("level=warn component=app msg=\"failed to retrieve checkout session for ack\" session_id=%s err=%v", sessionID, err)
		return ack
	}
	ack.DonationID = session.Metadata["donation_id"]
	ack.Amount = domain.CentsToAmount(session.AmountTotal)
	return ack
}

// PendingCheckoutURL returns the checkout URL of a still-pending donation,
// used to render its payment QR code.
func (s *Service) PendingCheckoutURL(ctx context.Context, donationID uuid.UUID) (string, error) {
	donation, err := s.repo.FindDonationByID(ctx, donationID)
	if err != nil {
		return "", err
	}
	if donation.PaymentStatus != domain.PaymentStatusPending || donation.CheckoutURL == "" {
		return "", store.ErrDonationNotFound
	}
	return donation.CheckoutURL, nil
}

// ExpireStalePendingDonations marks pending donations older than the given
// age as expired and returns how many were affected.
func (s *Service) ExpireStalePendingDonations(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.ExpireStalePendingDonations(ctx, time.Now().Add(-maxAge))
}
