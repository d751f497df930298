package domain

import (
	"sort"
	"time"
)

// Recommendation is the advisory payload for one campaign. Sections are nil
// when their backing model was unavailable; suggestions are always present,
// possibly empty. The JSON shape is consumed by the CLI and stored as-is.
type Recommendation struct {
	CampaignID             string                `json:"campaign_id"`
	Timestamp              time.Time             `json:"timestamp"`
	BidAdjustments         *BidAdjustment        `json:"bid_adjustments"`
	BudgetRecommendation   *BudgetRecommendation `json:"budget_recommendation"`
	PerformanceForecast    *PerformanceForecast  `json:"performance_forecast"`
	OverallHealthScore     *int                  `json:"overall_health_score"`
	ImprovementSuggestions []string              `json:"improvement_suggestions"`

	// CampaignName is set only on batch runs, where the campaign listing
	// supplies it for display.
	CampaignName string `json:"campaign_name,omitempty"`
}

// RecommendationSet is the payload of one account-wide recommendation run,
// keyed by campaign ID.
type RecommendationSet struct {
	AccountID string                     `json:"account_id"`
	Timestamp time.Time                  `json:"timestamp"`
	Campaigns map[string]*Recommendation `json:"campaigns"`
}

// CampaignIDs returns the set's campaign IDs in sorted order so batch
// walks are deterministic.
func (s *RecommendationSet) CampaignIDs() []string {
	ids := make([]string, 0, len(s.Campaigns))
	for id := range s.Campaigns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BidAdjustment proposes a CPA-driven bid change, bounded to [-20%, +20%].
type BidAdjustment struct {
	CurrentCPA           float64 `json:"current_cpa"`
	RecommendedCPA       float64 `json:"recommended_cpa"`
	AdjustmentPercentage float64 `json:"adjustment_percentage"`
}

// BudgetRecommendation proposes a budget change driven by ROAS efficiency.
type BudgetRecommendation struct {
	CurrentBudget        float64 `json:"current_budget"`
	RecommendedBudget    float64 `json:"recommended_budget"`
	AdjustmentPercentage float64 `json:"adjustment_percentage"`
}

// PerformanceForecast projects conversions at current spend and at a 20%
// budget increase.
type PerformanceForecast struct {
	CurrentConversions                     float64 `json:"current_conversions"`
	ExpectedConversions                    float64 `json:"expected_conversions"`
	ExpectedConversionsWith20PctMoreBudget float64 `json:"expected_conversions_with_20pct_more_budget"`
}

// BidAdjustmentPct returns the proposed bid change in percent, 0 when the
// section is absent.
func (r *Recommendation) BidAdjustmentPct() float64 {
	if r.BidAdjustments == nil {
		return 0
	}
	return r.BidAdjustments.AdjustmentPercentage
}

// BudgetAdjustmentPct returns the proposed budget change in percent, 0 when
// the section is absent.
func (r *Recommendation) BudgetAdjustmentPct() float64 {
	if r.BudgetRecommendation == nil {
		return 0
	}
	return r.BudgetRecommendation.AdjustmentPercentage
}

// HealthScore returns the overall health score, -1 when absent.
func (r *Recommendation) HealthScore() int {
	if r.OverallHealthScore == nil {
		return -1
	}
	return *r.OverallHealthScore
}
