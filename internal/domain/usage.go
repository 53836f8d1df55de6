/**
 * @description
 * Usage-quota domain models. Anonymous visitors get a small number of free
 * uses of the gated features, tracked per browser via an opaque client key.
 * Registered users are unlimited.
 */

package domain

import "time"

// Gated feature classes. Each has an independent free-use counter.
const (
	FeatureMatch     = "match"
	FeatureRandomize = "randomize"
)

// UsageRecord is the persisted per-client counter state.
type UsageRecord struct {
	ClientKey      string    `json:"-"`
	MatchesUsed    int       `json:"matches_used"`
	RandomizesUsed int       `json:"randomizes_used"`
	UpdatedAt      time.Time `json:"-"`
}

// UsageSnapshot is the read model returned by GET /api/usage and attached to
// quota-exceeded errors. The can_* booleans are derived from counts against
// the configured limits; Unlimited overrides both for authenticated callers.
type UsageSnapshot struct {
	MatchesUsed     int  `json:"matches_used"`
	MatchesLimit    int  `json:"matches_limit"`
	RandomizesUsed  int  `json:"randomizes_used"`
	RandomizesLimit int  `json:"randomizes_limit"`
	CanMatch        bool `json:"can_match"`
	CanRandomize    bool `json:"can_randomize"`
	Unlimited       bool `json:"unlimited"`
}

// ConsumeUsageRequest is the DTO for POST /api/usage/consume.
type ConsumeUsageRequest struct {
	Feature string `json:"feature"`
}

// QuotaExceededResponse is the structured 403 body returned when an
// anonymous caller runs out of free uses.
type QuotaExceededResponse struct {
	Error                string        `json:"error"`
	Feature              string        `json:"feature"`
	Usage                UsageSnapshot `json:"usage"`
	RegistrationRequired bool          `json:"registration_required"`
}
