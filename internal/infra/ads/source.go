package ads

import (
	"context"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
)

// Source provides read access to one account on the remote Ads API.
// Implementations return errors carrying gRPC status codes so the executor
// can classify them.
type Source interface {
	// ListCampaigns returns campaigns in the account. Paused campaigns are
	// included only when includePaused is set.
	ListCampaigns(ctx context.Context, includePaused bool) ([]*domain.Campaign, error)

	// DailyMetrics returns per-campaign daily metrics rows on or after the
	// given date, ordered by date then campaign.
	DailyMetrics(ctx context.Context, since time.Time) ([]*domain.CampaignMetrics, error)

	// CampaignSnapshot returns aggregate performance for one campaign over
	// the recent lookback window. A campaign without data yields (nil, nil).
	CampaignSnapshot(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error)

	// AccountInfo returns descriptive details for the account.
	AccountInfo(ctx context.Context) (*domain.Account, error)
}

// ChangeApplier pushes approved recommendation changes back to the remote
// API.
type ChangeApplier interface {
	// ApplyBidAdjustment scales the campaign's bids by pct percent.
	ApplyBidAdjustment(ctx context.Context, campaignID string, pct float64) error

	// ApplyBudgetChange sets the campaign's daily budget in currency units.
	ApplyBudgetChange(ctx context.Context, campaignID string, budget float64) error
}
