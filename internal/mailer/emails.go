/**
 * @description
 * Donation email workflows consumed by the background worker. Each completed
 * donation produces up to two messages: a thank-you receipt to the donor and
 * a heads-up to the campaign owner. Receipts are guarded by a sent flag on
 * the donation so webhook redeliveries never double-send.
 */

package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
)

// ErrNoRecipient is returned when a donation has no usable donor email.
var ErrNoRecipient = errors.New("donation has no donor email")

// DonationMailer renders and delivers donation emails.
type DonationMailer struct {
	sender     Sender
	repo       store.Repository
	ownerEmail string
}

// NewDonationMailer creates a donation mailer. The owner email may be empty,
// which disables owner notifications.
func NewDonationMailer(sender Sender, repo store.Repository, ownerEmail string) *DonationMailer {
	return &DonationMailer{
		sender:     sender,
		repo:       repo,
		ownerEmail: ownerEmail,
	}
}

// ProcessCompletedDonation sends the receipt and owner notification for one
// completed donation. It is safe to call more than once per donation.
func (m *DonationMailer) ProcessCompletedDonation(ctx context.Context, donationID uuid.UUID) error {
	donation, err := m.repo.FindDonationByID(ctx, donationID)
	if err != nil {
		return err
	}
	if donation.PaymentStatus != domain.PaymentStatusCompleted {
		log.Printf("level=info component=mailer msg=\"skipping non-completed donation\" donation_id=%s status=%s", donation.ID, donation.PaymentStatus)
		return nil
	}

	campaign, err := m.repo.FindActiveCampaign(ctx)
	campaignTitle := "our campaign"
	if err == nil {
		campaignTitle = campaign.Title
	}

	if donation.ReceiptSent {
		log.Printf("level=info component=mailer msg=\"receipt already sent\" donation_id=%s", donation.ID)
	} else if donation.DonorEmail == "" {
		log.Printf("level=info component=mailer msg=\"no donor email, skipping receipt\" donation_id=%s", donation.ID)
	} else {
		subject, body := renderReceipt(donation, campaignTitle)
		if err := m.sender.Send(donation.DonorEmail, subject, body); err != nil {
			return fmt.Errorf("failed to send receipt for donation %s: %w", donation.ID, err)
		}
		if err := m.repo.MarkReceiptSent(ctx, donation.ID); err != nil {
			// The mail went out; a flag failure only risks a duplicate later.
			log.Printf("level=warn component=mailer msg=\"failed to mark receipt sent\" donation_id=%s err=%v", donation.ID, err)
		}
		log.Printf("level=info component=mailer msg=\"receipt sent\" donation_id=%s", donation.ID)
	}

	if m.ownerEmail != "" {
		subject, body := renderOwnerNotification(donation, campaignTitle)
		if err := m.sender.Send(m.ownerEmail, subject, body); err != nil {
			// Owner mail is informational only.
			log.Printf("level=warn component=mailer msg=\"failed to notify owner\" donation_id=%s err=%v", donation.ID, err)
		}
	}

	return nil
}

func renderReceipt(d *domain.Donation, campaignTitle string) (subject, body string) {
	name := strings.TrimSpace(d.DonorName)
	if name == "" {
		name = "Friend"
	}

	subject = fmt.Sprintf("Thank you for supporting %s!", campaignTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for your donation of $%.2f to %s.\n\n", domain.CentsToAmount(d.AmountCents), campaignTitle)
	if d.TicketQuantity > 0 {
		noun := "tickets"
		if d.TicketQuantity == 1 {
			noun = "ticket"
		}
		fmt.Fprintf(&b, "Your donation includes %d event %s. We will follow up with event details closer to the date.\n\n", d.TicketQuantity, noun)
	}
	b.WriteString("Your support makes a real difference.\n\nWith gratitude,\nThe Campaign Team\n")
	return subject, b.String()
}

func renderOwnerNotification(d *domain.Donation, campaignTitle string) (subject, body string) {
	donor := strings.TrimSpace(d.DonorName)
	if d.IsAnonymous || donor == "" {
		donor = "An anonymous supporter"
	}

	subject = fmt.Sprintf("New donation to %s", campaignTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "%s donated $%.2f.\n", donor, domain.CentsToAmount(d.AmountCents))
	if d.TicketQuantity > 0 {
		fmt.Fprintf(&b, "Tickets: %d\n", d.TicketQuantity)
	}
	if msg := strings.TrimSpace(d.Message); msg != "" {
		fmt.Fprintf(&b, "Message: %s\n", msg)
	}
	fmt.Fprintf(&b, "Donation ID: %s\n", d.ID)
	return subject, b.String()
}
