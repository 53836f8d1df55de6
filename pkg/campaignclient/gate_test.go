package campaignclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func quotaDeniedBody(feature string) QuotaError {
	return QuotaError{
		Feature: feature,
		Usage: UsageSnapshot{
			MatchesUsed:     3,
			MatchesLimit:    3,
			RandomizesUsed:  1,
			RandomizesLimit: 3,
			CanMatch:        false,
			CanRandomize:    true,
		},
		RegistrationRequired: true,
		Message:              "free match limit reached",
	}
}

func TestUseSuccessCachesSnapshot(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(UsageSnapshot{
			MatchesUsed: 1, MatchesLimit: 3, CanMatch: true, CanRandomize: true,
		})
	}))
	gate := NewUsageGate(client, nil, nil)

	if err := gate.Use(context.Background(), FeatureMatch); err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	snap := gate.Snapshot()
	if snap == nil || snap.MatchesUsed != 1 {
		t.Fatalf("expected cached snapshot with 1 match used, got %+v", snap)
	}
}

func TestUseQuotaDenialPromptsAnonymousCaller(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(quotaDeniedBody(FeatureMatch))
	}))

	var prompted *RegistrationPrompt
	gate := NewUsageGate(client, nil, func(p RegistrationPrompt) { prompted = &p })

	err := gate.Use(context.Background(), FeatureMatch)
	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if prompted == nil {
		t.Fatal("expected registration prompt for anonymous caller")
	}
	if prompted.Feature != FeatureMatch {
		t.Fatalf("expected prompt for %q, got %q", FeatureMatch, prompted.Feature)
	}
	if prompted.Usage.MatchesUsed != 3 {
		t.Fatalf("expected prompt to carry current counts, got %+v", prompted.Usage)
	}

	// The denial payload still updates the cache.
	snap := gate.Snapshot()
	if snap == nil || snap.CanMatch {
		t.Fatalf("expected cached snapshot with match exhausted, got %+v", snap)
	}
	if !gate.CanUse(FeatureRandomize) {
		t.Fatal("expected randomize still available")
	}
	if gate.CanUse(FeatureMatch) {
		t.Fatal("expected match denied by cached snapshot")
	}
}

func TestUseQuotaDenialAuthenticatedNoPrompt(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(quotaDeniedBody(FeatureMatch))
	}))
	tokens := NewMemoryTokenStore()
	tokens.SetToken("token-abc")
	client.tokens = tokens
	session := NewSession(client, tokens)

	prompted := false
	gate := NewUsageGate(client, session, func(RegistrationPrompt) { prompted = true })

	err := gate.Use(context.Background(), FeatureMatch)
	if err == nil {
		t.Fatal("expected the denial to surface as an error")
	}
	if prompted {
		t.Fatal("expected no prompt for an authenticated session")
	}

	// Authenticated callers get a plain rejection, never the quota type that
	// routes into registration handling.
	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		t.Fatalf("expected the quota type suppressed for authenticated callers, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected a plain server rejection, got %v", err)
	}
	if apiErr.Message != "free match limit reached" {
		t.Fatalf("expected denial wording preserved, got %q", apiErr.Message)
	}
}

func TestCanUseShortCircuitsForAuthenticatedSession(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tokens := NewMemoryTokenStore()
	tokens.SetToken("token-abc")
	client.tokens = tokens
	session := NewSession(client, tokens)

	gate := NewUsageGate(client, session, nil)
	exhausted := UsageSnapshot{CanMatch: false, CanRandomize: false}
	gate.snapshot = &exhausted

	if !gate.CanUse(FeatureMatch) {
		t.Fatal("expected authenticated caller to bypass the cached snapshot")
	}

	tokens.DeleteToken()
	if gate.CanUse(FeatureMatch) {
		t.Fatal("expected anonymous caller to hit the cached snapshot")
	}
}

func TestUseOtherFailureRefreshesSnapshot(t *testing.T) {
	fresh := UsageSnapshot{MatchesUsed: 2, MatchesLimit: 3, CanMatch: true, CanRandomize: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/usage/consume", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"temporary backend trouble"}`))
	})
	mux.HandleFunc("/api/usage", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fresh)
	})
	client, _ := newTestClient(t, mux)
	gate := NewUsageGate(client, nil, nil)

	err := gate.Use(context.Background(), FeatureMatch)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "temporary backend trouble" {
		t.Fatalf("expected original error preserved, got %q", apiErr.Message)
	}
	snap := gate.Snapshot()
	if snap == nil || snap.MatchesUsed != 2 {
		t.Fatalf("expected snapshot re-synced after failure, got %+v", snap)
	}
}
