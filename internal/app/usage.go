/**
 * @description
 * Usage-quota logic for the gated features. Anonymous visitors are identified
 * by an opaque client key and get a fixed number of free uses per feature;
 * authenticated users are unlimited. A denied attempt produces ErrQuotaExceeded
 * carrying the usage snapshot so the API layer can build the structured 403
 * the registration gate consumes.
 */

package app

import (
	"context"
	"fmt"

	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
)

// QuotaExceededError is returned when an anonymous caller is out of free uses.
type QuotaExceededError struct {
	Feature string
	Usage   domain.UsageSnapshot
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("free %s limit reached", e.Feature)
}

// Usage enforces the per-client free-use quotas.
type Usage struct {
	repo store.Repository
	cfg  Config
}

// NewUsage creates the usage service.
func NewUsage(repo store.Repository, cfg Config) *Usage {
	return &Usage{repo: repo, cfg: cfg}
}

func (u *Usage) snapshot(rec *domain.UsageRecord, unlimited bool) domain.UsageSnapshot {
	return domain.UsageSnapshot{
		MatchesUsed:     rec.MatchesUsed,
		MatchesLimit:    u.cfg.FreeMatchLimit,
		RandomizesUsed:  rec.RandomizesUsed,
		RandomizesLimit: u.cfg.FreeRandomizeLimit,
		CanMatch:        unlimited || rec.MatchesUsed < u.cfg.FreeMatchLimit,
		CanRandomize:    unlimited || rec.RandomizesUsed < u.cfg.FreeRandomizeLimit,
		Unlimited:       unlimited,
	}
}

// Snapshot returns the current usage state for a caller.
func (u *Usage) Snapshot(ctx context.Context, clientKey string, authenticated bool) (domain.UsageSnapshot, error) {
	rec, err := u.repo.FindUsageRecord(ctx, clientKey)
	if err != nil {
		return domain.UsageSnapshot{}, err
	}
	return u.snapshot(rec, authenticated), nil
}

// Consume records one use of a feature. Authenticated callers always pass and
// are still counted, which keeps their history intact if they later log out.
// Anonymous callers over the limit get a QuotaExceededError with the snapshot
// attached; the counter is not advanced past the limit.
func (u *Usage) Consume(ctx context.Context, clientKey, feature string, authenticated bool) (domain.UsageSnapshot, error) {
	if feature != domain.FeatureMatch && feature != domain.FeatureRandomize {
		return domain.UsageSnapshot{}, fmt.Errorf("%w: %q", store.ErrUnknownFeature, feature)
	}

	if !authenticated {
		rec, err := u.repo.FindUsageRecord(ctx, clientKey)
		if err != nil {
			return domain.UsageSnapshot{}, err
		}
		snap := u.snapshot(rec, false)
		if (feature == domain.FeatureMatch && !snap.CanMatch) ||
			(feature == domain.FeatureRandomize && !snap.CanRandomize) {
			return snap, &QuotaExceededError{Feature: feature, Usage: snap}
		}
	}

	rec, err := u.repo.IncrementUsage(ctx, clientKey, feature)
	if err != nil {
		return domain.UsageSnapshot{}, err
	}
	return u.snapshot(rec, authenticated), nil
}
