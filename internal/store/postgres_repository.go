/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to campaigns, donations, users, and usage quotas.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freedomfund/donation-service/internal/domain"
)

var (
	ErrCampaignNotFound = errors.New("no active campaign")
	ErrDonationNotFound = errors.New("donation not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUnknownFeature   = errors.New("unknown feature")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindActiveCampaign returns the currently active campaign. Only one campaign
// is expected to be active at a time; the newest wins if several are.
func (r *PostgresRepository) FindActiveCampaign(ctx context.Context) (*domain.Campaign, error) {
	var c domain.Campaign
	query := `
		SELECT id, title, description, goal_amount_cents, current_amount_cents,
		       is_active, start_date, end_date, featured_image, featured_video_url,
		       created_at, updated_at
		FROM campaigns
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query).Scan(
		&c.ID, &c.Title, &c.Description, &c.GoalAmountCents, &c.CurrentAmountCents,
		&c.IsActive, &c.StartDate, &c.EndDate, &c.FeaturedImage, &c.FeaturedVideoURL,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CountTicketsSold sums ticket quantities across completed donations.
func (r *PostgresRepository) CountTicketsSold(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var total int64
	query := `
		SELECT COALESCE(SUM(ticket_quantity), 0)
		FROM donations
		WHERE campaign_id = $1 AND payment_status = 'completed'
	`
	if err := r.db.QueryRow(ctx, query, campaignID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListCampaignUpdates returns the updates for a campaign, newest first.
func (r *PostgresRepository) ListCampaignUpdates(ctx context.Context, campaignID uuid.UUID) ([]domain.CampaignUpdate, error) {
	query := `
		SELECT id, campaign_id, title, content, image_url, video_url, video_embed_code, created_at
		FROM campaign_updates
		WHERE campaign_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []domain.CampaignUpdate{}
	for rows.Next() {
		var u domain.CampaignUpdate
		if err := rows.Scan(&u.ID, &u.CampaignID, &u.Title, &u.Content, &u.ImageURL, &u.VideoURL, &u.VideoEmbedCode, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.HasVideo = u.VideoURL != "" || u.VideoEmbedCode != ""
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// ListRecentDonations returns the latest completed, non-anonymous donations.
func (r *PostgresRepository) ListRecentDonations(ctx context.Context, limit int) ([]domain.Donation, error) {
	query := `
		SELECT id, campaign_id, amount_cents, ticket_quantity, donor_name, is_anonymous, message, created_at
		FROM donations
		WHERE payment_status = 'completed' AND is_anonymous = false
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := []domain.Donation{}
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.CampaignID, &d.AmountCents, &d.TicketQuantity, &d.DonorName, &d.IsAnonymous, &d.Message, &d.CreatedAt); err != nil {
			return nil, err
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}

// CreateDonation inserts a new pending donation record.
func (r *PostgresRepository) CreateDonation(ctx context.Context, d *domain.Donation) error {
	query := `
		INSERT INTO donations (
			id, campaign_id, amount_cents, ticket_quantity, donor_name, donor_email,
			user_id, is_anonymous, message, stripe_session_id, checkout_url, payment_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRow(ctx, query,
		d.ID, d.CampaignID, d.AmountCents, d.TicketQuantity, d.DonorName, d.DonorEmail,
		d.UserID, d.IsAnonymous, d.Message, d.StripeSessionID, d.CheckoutURL, d.PaymentStatus,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

// AttachCheckoutSession records the Stripe session created for a donation.
func (r *PostgresRepository) AttachCheckoutSession(ctx context.Context, donationID uuid.UUID, sessionID, checkoutURL string) error {
	query := `
		UPDATE donations
		SET stripe_session_id = $2, checkout_url = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, donationID, sessionID, checkoutURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDonationNotFound
	}
	return nil
}

const donationColumns = `
	id, campaign_id, amount_cents, ticket_quantity, donor_name, donor_email,
	user_id, is_anonymous, message, stripe_session_id, stripe_payment_intent_id,
	checkout_url, payment_status, receipt_sent, receipt_sent_at, created_at, updated_at
`

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	err := row.Scan(
		&d.ID, &d.CampaignID, &d.AmountCents, &d.TicketQuantity, &d.DonorName, &d.DonorEmail,
		&d.UserID, &d.IsAnonymous, &d.Message, &d.StripeSessionID, &d.StripePaymentIntentID,
		&d.CheckoutURL, &d.PaymentStatus, &d.ReceiptSent, &d.ReceiptSentAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindDonationByID retrieves a donation by its primary key.
func (r *PostgresRepository) FindDonationByID(ctx context.Context, donationID uuid.UUID) (*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`
	return scanDonation(r.db.QueryRow(ctx, query, donationID))
}

// FindDonationByStripeSessionID retrieves a donation by its checkout session id.
func (r *PostgresRepository) FindDonationByStripeSessionID(ctx context.Context, sessionID string) (*domain.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE stripe_session_id = $1`
	return scanDonation(r.db.QueryRow(ctx, query, sessionID))
}

// CompleteDonation transitions a pending donation to completed and credits the
// campaign total atomically. A donation already completed is left untouched so
// webhook redeliveries cannot double-count.
func (r *PostgresRepository) CompleteDonation(ctx context.Context, donationID uuid.UUID, paymentIntentID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var campaignID uuid.UUID
	var amountCents int64
	query := `
		UPDATE donations
		SET payment_status = 'completed', stripe_payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'completed'
		RETURNING campaign_id, amount_cents
	`
	err = tx.QueryRow(ctx, query, donationID, paymentIntentID).Scan(&campaignID, &amountCents)
	if err != nil {
		if err == pgx.ErrNoRows {
			// Already completed, or no such donation. Distinguish the two.
			var exists bool
			if checkErr := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM donations WHERE id = $1)`, donationID).Scan(&exists); checkErr != nil {
				return false, checkErr
			}
			if !exists {
				return false, ErrDonationNotFound
			}
			return false, nil
		}
		return false, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE campaigns
		SET current_amount_cents = current_amount_cents + $2, updated_at = NOW()
		WHERE id = $1
	`, campaignID, amountCents)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RefundDonation transitions a completed donation to refunded and debits the
// campaign total atomically.
func (r *PostgresRepository) RefundDonation(ctx context.Context, donationID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var campaignID uuid.UUID
	var amountCents int64
	query := `
		UPDATE donations
		SET payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND payment_status = 'completed'
		RETURNING campaign_id, amount_cents
	`
	err = tx.QueryRow(ctx, query, donationID).Scan(&campaignID, &amountCents)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE campaigns
		SET current_amount_cents = current_amount_cents - $2, updated_at = NOW()
		WHERE id = $1
	`, campaignID, amountCents)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ExpireStalePendingDonations marks pending donations older than the cutoff as
// expired. Abandoned checkouts never count toward the campaign total, so no
// campaign adjustment is needed.
func (r *PostgresRepository) ExpireStalePendingDonations(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE donations
		SET payment_status = 'expired', updated_at = NOW()
		WHERE payment_status = 'pending' AND created_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkReceiptSent records that the thank-you email went out for a donation.
func (r *PostgresRepository) MarkReceiptSent(ctx context.Context, donationID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE donations
		SET receipt_sent = true, receipt_sent_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, donationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDonationNotFound
	}
	return nil
}

// CreateUser inserts a new user account.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, auth_provider, created_at)
		VALUES ($1, lower(btrim($2)), $3, $4, $5, $6, NOW())
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.AuthProvider).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// FindUserByEmail retrieves a user by email, case-insensitively.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	query := `
		SELECT id, email, first_name, last_name, password_hash, auth_provider, created_at
		FROM users
		WHERE email = lower(btrim($1))
	`
	err := r.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.AuthProvider, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindUserByID retrieves a user by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var u domain.User
	query := `
		SELECT id, email, first_name, last_name, password_hash, auth_provider, created_at
		FROM users
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.AuthProvider, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateUserNames backfills first/last name on an existing account.
func (r *PostgresRepository) UpdateUserNames(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET first_name = $2, last_name = $3 WHERE id = $1
	`, userID, firstName, lastName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindUsageRecord returns the counter state for a client key, or a zeroed
// record when the key has never been seen.
func (r *PostgresRepository) FindUsageRecord(ctx context.Context, clientKey string) (*domain.UsageRecord, error) {
	var rec domain.UsageRecord
	query := `
		SELECT client_key, matches_used, randomizes_used, updated_at
		FROM usage_records
		WHERE client_key = $1
	`
	err := r.db.QueryRow(ctx, query, clientKey).Scan(&rec.ClientKey, &rec.MatchesUsed, &rec.RandomizesUsed, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &domain.UsageRecord{ClientKey: clientKey}, nil
		}
		return nil, err
	}
	return &rec, nil
}

// IncrementUsage bumps the counter for a feature, creating the record on first use.
func (r *PostgresRepository) IncrementUsage(ctx context.Context, clientKey, feature string) (*domain.UsageRecord, error) {
	var column string
	switch feature {
	case domain.FeatureMatch:
		column = "matches_used"
	case domain.FeatureRandomize:
		column = "randomizes_used"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}

	var rec domain.UsageRecord
	// column is one of two literals chosen above, not caller input
	query := `
		INSERT INTO usage_records (client_key, matches_used, randomizes_used, updated_at)
		VALUES ($1, CASE WHEN $2 = 'match' THEN 1 ELSE 0 END, CASE WHEN $2 = 'randomize' THEN 1 ELSE 0 END, NOW())
		ON CONFLICT (client_key)
		DO UPDATE SET ` + column + ` = usage_records.` + column + ` + 1, updated_at = NOW()
		RETURNING client_key, matches_used, randomizes_used, updated_at
	`
	err := r.db.QueryRow(ctx, query, clientKey, feature).Scan(&rec.ClientKey, &rec.MatchesUsed, &rec.RandomizesUsed, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
