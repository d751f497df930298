package optimize

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/ads"
)

// Policy decides whether one campaign's recommendation should be applied.
type Policy interface {
	ShouldApply(rec *domain.Recommendation) bool
}

// AutoPolicy approves significant changes to underperforming campaigns:
// health below 70 and either adjustment above 10 percent in magnitude.
// A recommendation without a health score is treated as healthy and left
// alone.
type AutoPolicy struct{}

func (AutoPolicy) ShouldApply(rec *domain.Recommendation) bool {
	health := rec.HealthScore()
	if health < 0 {
		health = 100
	}
	return health < 70 &&
		(math.Abs(rec.BidAdjustmentPct()) > 10 || math.Abs(rec.BudgetAdjustmentPct()) > 10)
}

// InteractivePolicy delegates the decision to a caller-supplied function,
// typically a terminal prompt.
type InteractivePolicy struct {
	Decide func(rec *domain.Recommendation) bool
}

func (p InteractivePolicy) ShouldApply(rec *domain.Recommendation) bool {
	return p.Decide(rec)
}

// ReviewResult records the outcome for one campaign in a review run.
type ReviewResult struct {
	CampaignID     string `json:"campaign_id"`
	CampaignName   string `json:"campaign_name"`
	ChangesApplied bool   `json:"changes_applied"`
	Error          string `json:"error,omitempty"`
}

// ReviewSummary aggregates a review run over a recommendation set.
type ReviewSummary struct {
	Applied int            `json:"applied"`
	Skipped int            `json:"skipped"`
	Results []ReviewResult `json:"campaigns"`
}

// Reviewer walks a recommendation set, applies the approved entries through
// the change applier, and reports a per-campaign summary. A failure on one
// campaign records the error on its entry and never aborts the batch.
type Reviewer struct {
	exec    *ads.Executor
	applier ads.ChangeApplier
	logger  *slog.Logger
}

func NewReviewer(exec *ads.Executor, applier ads.ChangeApplier, logger *slog.Logger) *Reviewer {
	return &Reviewer{exec: exec, applier: applier, logger: logger}
}

// Review applies the policy to each campaign in the set in sorted ID order.
// Context cancellation stops the walk and returns the partial summary.
func (r *Reviewer) Review(ctx context.Context, set *domain.RecommendationSet, policy Policy) *ReviewSummary {
	summary := &ReviewSummary{Results: []ReviewResult{}}
	for _, id := range set.CampaignIDs() {
		if ctx.Err() != nil {
			break
		}
		rec := set.Campaigns[id]
		result := ReviewResult{CampaignID: id, CampaignName: rec.CampaignName}

		if !policy.ShouldApply(rec) {
			r.logger.Info("skipped applying changes", "campaign", id, "name", rec.CampaignName)
			summary.Skipped++
			summary.Results = append(summary.Results, result)
			continue
		}

		if err := r.apply(ctx, rec); err != nil {
			r.logger.Error("failed to apply changes", "campaign", id, "name", rec.CampaignName, "err", err)
			result.Error = err.Error()
			summary.Skipped++
		} else {
			r.logger.Info("applied changes", "campaign", id, "name", rec.CampaignName)
			result.ChangesApplied = true
			summary.Applied++
		}
		summary.Results = append(summary.Results, result)
	}
	return summary
}

// apply pushes the recommendation's eligible changes through the mutation
// API. Bid adjustments below 5 percent in magnitude are noise and skipped;
// budget changes only go out with a positive target.
func (r *Reviewer) apply(ctx context.Context, rec *domain.Recommendation) error {
	if rec.BidAdjustments != nil {
		pct := rec.BidAdjustments.AdjustmentPercentage
		if math.Abs(pct) >= 5 {
			err := r.exec.Do(ctx, "ApplyBidAdjustment", func(ctx context.Context) error {
				return r.applier.ApplyBidAdjustment(ctx, rec.CampaignID, pct)
			})
			if err != nil {
				return fmt.Errorf("apply bid adjustment: %w", err)
			}
		}
	}

	if rec.BudgetRecommendation != nil {
		budget := rec.BudgetRecommendation.RecommendedBudget
		if budget > 0 {
			err := r.exec.Do(ctx, "ApplyBudgetChange", func(ctx context.Context) error {
				return r.applier.ApplyBudgetChange(ctx, rec.CampaignID, budget)
			})
			if err != nil {
				return fmt.Errorf("apply budget change: %w", err)
			}
		}
	}
	return nil
}
