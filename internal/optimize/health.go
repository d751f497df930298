package optimize

import (
	"math"

	"github.com/adsctl/optimizer/internal/core/domain"
)

// healthScore grades a campaign 0-100 as the rounded average of four
// sub-scores, each capped at 100: CTR against a 2% benchmark, conversion
// rate against 5%, budget utilization rewarded for landing in [0.9, 1.0],
// and ROAS against a 2.0 target.
func healthScore(m *domain.CampaignMetrics) int {
	ctrScore := math.Min(100, m.CTR/0.02*50)
	convRateScore := math.Min(100, m.ConversionRate()/0.05*50)

	utilization := m.BudgetUtilization()
	budgetScore := math.Min(100, utilization*100)
	if utilization >= 0.9 && utilization <= 1.0 {
		budgetScore = 100
	}

	roasScore := math.Min(100, m.ROAS()/2.0*50)

	return int(math.Round((ctrScore + convRateScore + budgetScore + roasScore) / 4))
}
