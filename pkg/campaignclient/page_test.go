package campaignclient

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

func campaignPageMux(updatesStatus int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/donations/campaign", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Campaign{ID: "c-1", Title: "Spring Fundraiser", IsActive: true})
	})
	mux.HandleFunc("/api/donations/updates", func(w http.ResponseWriter, r *http.Request) {
		if updatesStatus != http.StatusOK {
			w.WriteHeader(updatesStatus)
			w.Write([]byte(`{"error":"updates are unavailable"}`))
			return
		}
		json.NewEncoder(w).Encode([]CampaignUpdate{{ID: "u-1", Title: "Week one", CreatedAt: time.Now()}})
	})
	mux.HandleFunc("/api/donations/recent", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Donation{{ID: "d-1", Amount: 25, DonorName: "Alice"}})
	})
	return mux
}

func TestPageLoadComposesAllSections(t *testing.T) {
	client, _ := newTestClient(t, campaignPageMux(http.StatusOK))
	composer := NewPageComposer(client, nil)

	view := composer.Load(context.Background(), "/")

	if view.Outcome != OutcomeCampaign {
		t.Fatalf("expected campaign outcome, got %v", view.Outcome)
	}
	if view.Campaign.Status != ResultSuccess || view.Campaign.Value.Title != "Spring Fundraiser" {
		t.Fatalf("unexpected campaign result %+v", view.Campaign)
	}
	if view.Updates.Status != ResultSuccess || len(view.Updates.Value) != 1 {
		t.Fatalf("unexpected updates result %+v", view.Updates)
	}
	if view.Recent.Status != ResultSuccess || view.Recent.Value[0].DonorName != "Alice" {
		t.Fatalf("unexpected recent result %+v", view.Recent)
	}
}

func TestPageLoadOneFailedSectionDegradesAlone(t *testing.T) {
	client, _ := newTestClient(t, campaignPageMux(http.StatusInternalServerError))
	composer := NewPageComposer(client, nil)

	view := composer.Load(context.Background(), "/")

	if view.Updates.Status != ResultFailure {
		t.Fatalf("expected updates failure, got %v", view.Updates.Status)
	}
	if view.Updates.Reason != "updates are unavailable" {
		t.Fatalf("expected server wording preserved, got %q", view.Updates.Reason)
	}
	if view.Campaign.Status != ResultSuccess {
		t.Fatalf("expected campaign unaffected, got %v", view.Campaign.Status)
	}
	if view.Recent.Status != ResultSuccess {
		t.Fatalf("expected recent donations unaffected, got %v", view.Recent.Status)
	}
}

func TestPageLoadTerminalOutcomesSkipDataFetch(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	composer := NewPageComposer(client, nil)

	for _, path := range []string{"/success", "/cancel"} {
		view := composer.Load(context.Background(), path)
		if view.Outcome == OutcomeCampaign {
			t.Fatalf("expected terminal outcome for %q", path)
		}
		if view.Campaign.Status != ResultPending {
			t.Fatalf("expected campaign section untouched for %q, got %v", path, view.Campaign.Status)
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no data fetches on terminal views, got %d", calls)
	}
}

func TestPageLoadDeadSessionRendersAnonymous(t *testing.T) {
	mux := campaignPageMux(http.StatusOK)
	mux.HandleFunc("/api/accounts/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Session is no longer valid"}`))
	})
	client, _ := newTestClient(t, mux)
	tokens := NewMemoryTokenStore()
	tokens.SetToken("stale-token")
	client.tokens = tokens
	session := NewSession(client, tokens)
	composer := NewPageComposer(client, session)

	view := composer.Load(context.Background(), "/")

	if view.SessionOK || view.User != nil {
		t.Fatalf("expected anonymous view, got SessionOK=%v user=%+v", view.SessionOK, view.User)
	}
	if stored, _ := tokens.Token(); stored != "" {
		t.Fatalf("expected stale token removed, got %q", stored)
	}
	// A dead session never blocks the public data.
	if view.Campaign.Status != ResultSuccess {
		t.Fatalf("expected campaign data despite dead session, got %v", view.Campaign.Status)
	}
}
