package storage

import (
	"context"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
)

// StoredRecommendation is one persisted recommendation with its run context.
type StoredRecommendation struct {
	ID         string
	AccountID  string
	RunID      string
	CampaignID string
	CreatedAt  time.Time
	Payload    *domain.Recommendation
}

// MetricsRepository mirrors daily campaign metrics locally so training does
// not hammer the remote API.
type MetricsRepository interface {
	// SaveBatch upserts daily rows keyed by account, campaign and date.
	SaveBatch(ctx context.Context, rows []*domain.CampaignMetrics) error

	// History returns the account's rows on or after the given date,
	// ordered by date then campaign.
	History(ctx context.Context, accountID string, since time.Time) ([]*domain.CampaignMetrics, error)

	// LatestDate returns the most recent mirrored date for the account.
	// The zero time means nothing is mirrored yet.
	LatestDate(ctx context.Context, accountID string) (time.Time, error)

	// CountSince counts the account's rows on or after the given date.
	CountSince(ctx context.Context, accountID string, since time.Time) (int64, error)

	// DeleteBefore removes the account's rows dated before the cutoff.
	DeleteBefore(ctx context.Context, accountID string, cutoff time.Time) error
}

// RecommendationRepository keeps generated recommendations for audit and
// later application.
type RecommendationRepository interface {
	// Save persists one recommendation.
	Save(ctx context.Context, rec *StoredRecommendation) error

	// SaveBatch persists a whole run atomically.
	SaveBatch(ctx context.Context, recs []*StoredRecommendation) error

	// ListByRun returns the run's recommendations ordered by campaign ID.
	ListByRun(ctx context.Context, accountID, runID string) ([]*StoredRecommendation, error)

	// Latest returns the newest recommendation for a campaign, nil when
	// none exists.
	Latest(ctx context.Context, accountID, campaignID string) (*StoredRecommendation, error)

	// DeleteBefore removes the account's recommendations created before
	// the cutoff.
	DeleteBefore(ctx context.Context, accountID string, cutoff time.Time) error
}
