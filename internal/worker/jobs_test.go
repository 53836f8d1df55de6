package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/mailer"
	"github.com/freedomfund/donation-service/internal/store"
)

type workerRepoStub struct {
	store.Repository

	donation    *domain.Donation
	expired     int64
	expireErr   error
	expireCalls int
	lastCutoff  time.Time
}

func (s *workerRepoStub) FindDonationByID(ctx context.Context, id uuid.UUID) (*domain.Donation, error) {
	if s.donation == nil || s.donation.ID != id {
		return nil, store.ErrDonationNotFound
	}
	return s.donation, nil
}

func (s *workerRepoStub) FindActiveCampaign(ctx context.Context) (*domain.Campaign, error) {
	return nil, store.ErrCampaignNotFound
}

func (s *workerRepoStub) MarkReceiptSent(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (s *workerRepoStub) ExpireStalePendingDonations(ctx context.Context, cutoff time.Time) (int64, error) {
	s.expireCalls++
	s.lastCutoff = cutoff
	return s.expired, s.expireErr
}

type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJobs(repo *workerRepoStub, sender *recordingSender) *Jobs {
	m := mailer.NewDonationMailer(sender, repo, "")
	return NewJobs(repo, m, testLogger(), time.Hour)
}

func TestHandleDonationCompletedAcksAfterProcessing(t *testing.T) {
	donation := &domain.Donation{
		ID:            uuid.New(),
		AmountCents:   5000,
		DonorEmail:    "alice@example.com",
		PaymentStatus: domain.PaymentStatusCompleted,
	}
	repo := &workerRepoStub{donation: donation}
	sender := &recordingSender{}
	jobs := newTestJobs(repo, sender)

	body, _ := json.Marshal(map[string]interface{}{
		"donation_id": donation.ID,
		"amount":      50.0,
		"occurred_at": time.Now(),
	})

	if !jobs.HandleDonationCompleted(body) {
		t.Fatal("expected ack for a processed event")
	}
	if len(sender.sent) != 1 || sender.sent[0] != "alice@example.com" {
		t.Fatalf("expected one receipt, got %v", sender.sent)
	}
}

func TestHandleDonationCompletedAcksMalformedPayload(t *testing.T) {
	jobs := newTestJobs(&workerRepoStub{}, &recordingSender{})

	if !jobs.HandleDonationCompleted([]byte("not json")) {
		t.Fatal("expected malformed payload to be acked, not requeued")
	}
}

func TestHandleDonationCompletedNacksTransientFailure(t *testing.T) {
	donation := &domain.Donation{
		ID:            uuid.New(),
		AmountCents:   5000,
		DonorEmail:    "alice@example.com",
		PaymentStatus: domain.PaymentStatusCompleted,
	}
	repo := &workerRepoStub{donation: donation}
	sender := &recordingSender{err: errors.New("smtp down")}
	jobs := newTestJobs(repo, sender)

	body, _ := json.Marshal(map[string]interface{}{"donation_id": donation.ID})

	if jobs.HandleDonationCompleted(body) {
		t.Fatal("expected nack so the event is redelivered")
	}
}

func TestExpireStalePendingDonationsUsesConfiguredAge(t *testing.T) {
	repo := &workerRepoStub{expired: 3}
	jobs := NewJobs(repo, mailer.NewDonationMailer(&recordingSender{}, repo, ""), testLogger(), 2*time.Hour)

	before := time.Now().Add(-2 * time.Hour)
	jobs.ExpireStalePendingDonations()
	after := time.Now().Add(-2 * time.Hour)

	if repo.expireCalls != 1 {
		t.Fatalf("expected one expiry sweep, got %d", repo.expireCalls)
	}
	if repo.lastCutoff.Before(before) || repo.lastCutoff.After(after) {
		t.Fatalf("cutoff %v outside expected window [%v, %v]", repo.lastCutoff, before, after)
	}
}

func TestExpireStalePendingDonationsSurvivesRepoError(t *testing.T) {
	repo := &workerRepoStub{expireErr: errors.New("db offline")}
	jobs := NewJobs(repo, mailer.NewDonationMailer(&recordingSender{}, repo, ""), testLogger(), time.Hour)

	// Must not panic; the scheduler calls this without error handling.
	jobs.ExpireStalePendingDonations()
	if repo.expireCalls != 1 {
		t.Fatalf("expected the sweep to run, got %d calls", repo.expireCalls)
	}
}
