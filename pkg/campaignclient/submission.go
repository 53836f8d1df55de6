/**
 * @description
 * Donation submission workflow. A Submission owns the form fields and walks
 * a four-state machine: idle, submitting, redirecting, failed. Editing any
 * field after a failure returns to idle with the values intact, matching how
 * a form keeps what the donor typed when an attempt goes wrong.
 *
 * Guards: a computed total below one currency unit is rejected before any
 * network call, and a second Submit while one is in flight is refused.
 */

package campaignclient

import (
	"context"
	"errors"
	"sync"
)

// SubmissionState is the lifecycle position of a donation attempt.
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateSubmitting
	StateRedirecting
	StateFailed
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateRedirecting:
		return "redirecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MinimumTotal is the smallest chargeable grand total, in currency units.
const MinimumTotal = 1.0

var (
	// ErrBelowMinimum blocks submissions whose total is under one currency
	// unit. No network call is made.
	ErrBelowMinimum = errors.New("please enter a donation of at least $1")

	// ErrSubmissionInFlight rejects a Submit while another is outstanding.
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrNoCheckoutURL is the terminal error for a success response that
	// carries no redirect URL.
	ErrNoCheckoutURL = errors.New("No checkout URL received")
)

// SubmissionFields are the donor-editable form values.
type SubmissionFields struct {
	ExtraAmount    float64
	TicketQuantity int
	DonorName      string
	DonorEmail     string
	Message        string
	IsAnonymous    bool
}

// Submission drives one donation form. Safe for concurrent use; the
// in-flight guard is what prevents duplicate checkout sessions.
type Submission struct {
	client          *Client
	ticketUnitPrice float64

	mu          sync.Mutex
	state       SubmissionState
	fields      SubmissionFields
	failMessage string
	checkoutURL string
}

// NewSubmission creates an idle submission for the given ticket unit price.
func NewSubmission(client *Client, ticketUnitPrice float64) *Submission {
	return &Submission{client: client, ticketUnitPrice: ticketUnitPrice}
}

// State reports the current machine state.
func (s *Submission) State() SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fields returns a copy of the current form values.
func (s *Submission) Fields() SubmissionFields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

// FailureMessage returns the message from the last failed attempt.
func (s *Submission) FailureMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failMessage
}

// CheckoutURL returns the redirect target once the state is redirecting.
func (s *Submission) CheckoutURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutURL
}

// SetFields replaces the form values. Editing after a failure returns the
// machine to idle; values are never cleared by a failure, only by the donor.
func (s *Submission) SetFields(fields SubmissionFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = fields
	if s.state == StateFailed {
		s.state = StateIdle
		s.failMessage = ""
	}
}

// Total computes the grand total: tickets at the unit price plus any extra.
func (s *Submission) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total()
}

func (s *Submission) total() float64 {
	return float64(s.fields.TicketQuantity)*s.ticketUnitPrice + s.fields.ExtraAmount
}

// Submit runs one attempt: validate, send, settle. On success the machine
// parks in redirecting with the checkout URL exposed for full-page
// navigation; local state is intentionally abandoned at that point because
// payment happens on a different origin.
func (s *Submission) Submit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return "", ErrSubmissionInFlight
	}

	total := s.total()
	if total < MinimumTotal {
		s.state = StateFailed
		s.failMessage = ErrBelowMinimum.Error()
		s.mu.Unlock()
		return "", ErrBelowMinimum
	}

	req := DonationRequest{
		Amount:         total,
		TicketQuantity: s.fields.TicketQuantity,
		DonorName:      s.fields.DonorName,
		DonorEmail:     s.fields.DonorEmail,
		Message:        s.fields.Message,
		IsAnonymous:    s.fields.IsAnonymous,
	}
	if req.IsAnonymous {
		// Anonymity suppresses identity regardless of what the fields hold.
		req.DonorName = ""
		req.DonorEmail = ""
	}

	s.state = StateSubmitting
	s.mu.Unlock()

	session, err := s.client.CreateDonation(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateFailed
		s.failMessage = failureMessage(err)
		return "", err
	}
	if session.CheckoutURL == "" {
		s.state = StateFailed
		s.failMessage = ErrNoCheckoutURL.Error()
		return "", ErrNoCheckoutURL
	}

	s.state = StateRedirecting
	s.checkoutURL = session.CheckoutURL
	return session.CheckoutURL, nil
}

// failureMessage prefers the server's own wording when it supplied one.
func failureMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		return connErr.Error()
	}
	return "Something went wrong. Please try again."
}
