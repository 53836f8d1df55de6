/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the donation-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation and handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/freedomfund/donation-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Campaign read models
	FindActiveCampaign(ctx context.Context) (*domain.Campaign, error)
	CountTicketsSold(ctx context.Context, campaignID uuid.UUID) (int64, error)
	ListCampaignUpdates(ctx context.Context, campaignID uuid.UUID) ([]domain.CampaignUpdate, error)
	ListRecentDonations(ctx context.Context, limit int) ([]domain.Donation, error)

	// Donation lifecycle
	CreateDonation(ctx context.Context, d *domain.Donation) error
	AttachCheckoutSession(ctx context.Context, donationID uuid.UUID, sessionID, checkoutURL string) error
	FindDonationByID(ctx context.Context, donationID uuid.UUID) (*domain.Donation, error)
	FindDonationByStripeSessionID(ctx context.Context, sessionID string) (*domain.Donation, error)
	// CompleteDonation marks a pending donation completed and adds its amount
	// to the campaign total in the same transaction. Returns false when the
	// donation had already been completed (idempotent webhook redelivery).
	CompleteDonation(ctx context.Context, donationID uuid.UUID, paymentIntentID string) (bool, error)
	// RefundDonation marks a completed donation refunded and subtracts its
	// amount from the campaign total. Returns false when the donation was not
	// in the completed state.
	RefundDonation(ctx context.Context, donationID uuid.UUID) (bool, error)
	ExpireStalePendingDonations(ctx context.Context, olderThan time.Time) (int64, error)
	MarkReceiptSent(ctx context.Context, donationID uuid.UUID) error

	// User accounts
	CreateUser(ctx context.Context, u *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	UpdateUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error

	// Usage quotas
	FindUsageRecord(ctx context.Context, clientKey string) (*domain.UsageRecord, error)
	IncrementUsage(ctx context.Context, clientKey, feature string) (*domain.UsageRecord, error)
}
