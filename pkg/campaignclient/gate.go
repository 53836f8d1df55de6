/**
 * @description
 * Usage gate for the quota-limited features. The gate keeps a locally cached
 * usage snapshot, short-circuits the check for authenticated sessions, and
 * refreshes the snapshot after every attempted use, win or lose. A quota
 * denial while unauthenticated raises the registration prompt with the
 * denied feature attached; the same denial while authenticated is surfaced
 * as a plain failure since unlimited accounts should never hit it.
 */

package campaignclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// RegistrationPrompt is what the gate raises when an anonymous caller runs
// out of free uses. The embedded payload tells the prompt which feature was
// denied and what registering would unlock.
type RegistrationPrompt struct {
	Feature string
	Usage   UsageSnapshot
}

// PromptFunc receives registration prompts. Typically wired to whatever
// renders the signup modal.
type PromptFunc func(prompt RegistrationPrompt)

// UsageGate guards the match and randomize features.
type UsageGate struct {
	client  *Client
	session *Session
	prompt  PromptFunc

	mu       sync.Mutex
	snapshot *UsageSnapshot
}

// NewUsageGate creates a gate. The prompt func may be nil if no registration
// flow is attached.
func NewUsageGate(client *Client, session *Session, prompt PromptFunc) *UsageGate {
	return &UsageGate{client: client, session: session, prompt: prompt}
}

// Snapshot returns the cached usage snapshot, if one has been fetched.
func (g *UsageGate) Snapshot() *UsageSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.snapshot == nil {
		return nil
	}
	snap := *g.snapshot
	return &snap
}

// Refresh fetches a fresh snapshot from the backend. Called on mount and
// opportunistically after a successful authentication.
func (g *UsageGate) Refresh(ctx context.Context) error {
	snapshot, err := g.client.Usage(ctx)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.snapshot = snapshot
	g.mu.Unlock()
	return nil
}

// CanUse consults the cached snapshot. Authenticated sessions short-circuit
// to true without touching the cache. A never-fetched snapshot also answers
// true; the backend is the actual enforcer.
func (g *UsageGate) CanUse(feature string) bool {
	if g.session != nil && g.session.IsAuthenticated() {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.snapshot == nil {
		return true
	}
	switch feature {
	case FeatureMatch:
		return g.snapshot.CanMatch
	case FeatureRandomize:
		return g.snapshot.CanRandomize
	default:
		return false
	}
}

// Use records one attempt of a feature. The snapshot is refreshed after
// every attempt regardless of outcome. A quota denial raises the
// registration prompt only for unauthenticated callers; for authenticated
// ones the error passes through untouched.
func (g *UsageGate) Use(ctx context.Context, feature string) error {
	snapshot, err := g.client.ConsumeUsage(ctx, feature)
	if err == nil {
		g.mu.Lock()
		g.snapshot = snapshot
		g.mu.Unlock()
		return nil
	}

	// Denials still update the cache: the 403 carries the current counts.
	var quotaErr *QuotaError
	if errors.As(err, &quotaErr) {
		g.mu.Lock()
		snap := quotaErr.Usage
		g.snapshot = &snap
		g.mu.Unlock()

		if g.session == nil || !g.session.IsAuthenticated() {
			if g.prompt != nil {
				g.prompt(RegistrationPrompt{Feature: quotaErr.Feature, Usage: quotaErr.Usage})
			}
			return err
		}
		// Unlimited accounts should never hit the quota. When one does, the
		// denial is a plain server rejection, not a registration matter.
		return &APIError{StatusCode: http.StatusForbidden, Message: quotaErr.Error()}
	}

	// Other failures leave the cache as-is but still try to re-sync. The
	// refresh is best-effort and never masks the original error.
	_ = g.Refresh(ctx)
	return err
}
