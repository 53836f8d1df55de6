package campaignclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(NewMemoryTokenStore(), WithBaseURL(server.URL))
	return client, server
}

func TestSubmitBlocksBelowMinimumWithoutNetworkCall(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	sub := NewSubmission(client, 50)
	sub.SetFields(SubmissionFields{ExtraAmount: 0.50})

	_, err := sub.Submit(context.Background())
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("expected ErrBelowMinimum, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
	if sub.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", sub.State())
	}
}

func TestSubmitComputesTicketTotal(t *testing.T) {
	var got DonationRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{CheckoutURL: "https://checkout.example/cs_1", DonationID: "d-1"})
	}))

	// Two tickets at $50 with no extra donation: submitted amount is 100.
	sub := NewSubmission(client, 50)
	sub.SetFields(SubmissionFields{TicketQuantity: 2})

	url, err := sub.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got.Amount != 100 {
		t.Fatalf("expected submitted amount 100, got %v", got.Amount)
	}
	if got.TicketQuantity != 2 {
		t.Fatalf("expected 2 tickets, got %d", got.TicketQuantity)
	}
	if url != "https://checkout.example/cs_1" {
		t.Fatalf("unexpected checkout url %q", url)
	}
	if sub.State() != StateRedirecting {
		t.Fatalf("expected redirecting state, got %v", sub.State())
	}
}

func TestSubmitAnonymityBlanksDonorFields(t *testing.T) {
	tests := []struct {
		name      string
		anonymous bool
		wantName  string
	}{
		{name: "named donation carries the name", anonymous: false, wantName: "Alice"},
		{name: "anonymous donation blanks the name", anonymous: true, wantName: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got DonationRequest
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(CheckoutSession{CheckoutURL: "https://checkout.example/cs", DonationID: "d"})
			}))

			sub := NewSubmission(client, 50)
			sub.SetFields(SubmissionFields{
				ExtraAmount: 10,
				DonorName:   "Alice",
				DonorEmail:  "alice@example.com",
				IsAnonymous: tt.anonymous,
			})

			if _, err := sub.Submit(context.Background()); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if got.DonorName != tt.wantName {
				t.Fatalf("expected donor_name %q, got %q", tt.wantName, got.DonorName)
			}
			if tt.anonymous && got.DonorEmail != "" {
				t.Fatalf("expected blank donor_email, got %q", got.DonorEmail)
			}
			if got.IsAnonymous != tt.anonymous {
				t.Fatalf("expected is_anonymous=%v", tt.anonymous)
			}
		})
	}
}

func TestSubmitMissingCheckoutURL(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"checkout_url":null,"donation_id":"d-1"}`))
	}))

	sub := NewSubmission(client, 50)
	sub.SetFields(SubmissionFields{ExtraAmount: 10})

	_, err := sub.Submit(context.Background())
	if !errors.Is(err, ErrNoCheckoutURL) {
		t.Fatalf("expected ErrNoCheckoutURL, got %v", err)
	}
	if sub.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", sub.State())
	}
	if sub.FailureMessage() != "No checkout URL received" {
		t.Fatalf("expected verbatim missing-url message, got %q", sub.FailureMessage())
	}
	if sub.CheckoutURL() != "" {
		t.Fatal("expected no navigation target")
	}
}

func TestSubmitSingleInFlightRequest(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CheckoutSession{CheckoutURL: "https://checkout.example/cs", DonationID: "d"})
	}))

	sub := NewSubmission(client, 50)
	sub.SetFields(SubmissionFields{ExtraAmount: 10})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := sub.Submit(context.Background()); err != nil {
			t.Errorf("first Submit() error = %v", err)
		}
	}()

	// Wait for the first submit to be in flight, then try a second.
	deadline := time.Now().Add(2 * time.Second)
	for sub.State() != StateSubmitting {
		if time.Now().After(deadline) {
			t.Fatal("first submit never entered submitting state")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := sub.Submit(context.Background()); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(release)
	wg.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one create-donation call, got %d", calls)
	}
}

func TestSubmitFailureKeepsFieldsAndEditResets(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"donation amount exceeds the maximum"}`))
	}))

	sub := NewSubmission(client, 50)
	fields := SubmissionFields{ExtraAmount: 999999, DonorName: "Alice", Message: "good luck"}
	sub.SetFields(fields)

	if _, err := sub.Submit(context.Background()); err == nil {
		t.Fatal("expected submit to fail")
	}
	if sub.State() != StateFailed {
		t.Fatalf("expected failed state, got %v", sub.State())
	}
	// Server wording is surfaced verbatim.
	if sub.FailureMessage() != "donation amount exceeds the maximum" {
		t.Fatalf("expected server message verbatim, got %q", sub.FailureMessage())
	}
	if sub.Fields() != fields {
		t.Fatalf("expected field values preserved after failure, got %+v", sub.Fields())
	}

	// The next edit transitions failed back to idle.
	fields.ExtraAmount = 50
	sub.SetFields(fields)
	if sub.State() != StateIdle {
		t.Fatalf("expected idle after edit, got %v", sub.State())
	}
	if sub.FailureMessage() != "" {
		t.Fatalf("expected failure message cleared, got %q", sub.FailureMessage())
	}
}

func TestSubmitConnectivityFailureGenericMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(NewMemoryTokenStore(), WithBaseURL(server.URL))
	server.Close() // unreachable from here on

	sub := NewSubmission(client, 50)
	sub.SetFields(SubmissionFields{ExtraAmount: 10})

	_, err := sub.Submit(context.Background())
	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %v", err)
	}
	if sub.FailureMessage() == "" {
		t.Fatal("expected a generic failure message")
	}
}
