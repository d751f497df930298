package model

import "github.com/adsctl/optimizer/internal/optimize/frame"

// Model names, also the artifact keys within an account scope.
const (
	NameBidOptimization       = "bid_optimization"
	NameBudgetAllocation      = "budget_allocation"
	NamePerformancePrediction = "performance_prediction"
)

// Spec defines one pipeline: its feature and target columns plus estimator
// hyperparameters. The three production specs differ only in configuration.
type Spec struct {
	Name     string
	Features []string
	Target   string
	Lambda   float64
}

// BidOptimization predicts cost per conversion from spend and engagement
// signals.
func BidOptimization() Spec {
	return Spec{
		Name: NameBidOptimization,
		Features: []string{
			frame.ColCost, frame.ColClicks, frame.ColImpressions,
			frame.ColCTR, frame.ColAverageCPC, frame.ColAverageCPM,
		},
		Target: frame.ColCostPerConversion,
		Lambda: 1.0,
	}
}

// BudgetAllocation predicts return on ad spend from volume and rate
// signals.
func BudgetAllocation() Spec {
	return Spec{
		Name: NameBudgetAllocation,
		Features: []string{
			frame.ColImpressions, frame.ColClicks, frame.ColConversions,
			frame.ColCTR, frame.ColConversionRate,
		},
		Target: frame.ColROAS,
		Lambda: 5.0,
	}
}

// PerformancePrediction predicts conversions from budget and spend signals.
func PerformancePrediction() Spec {
	return Spec{
		Name: NamePerformancePrediction,
		Features: []string{
			frame.ColBudget, frame.ColCost, frame.ColImpressions,
			frame.ColClicks, frame.ColCTR, frame.ColAverageCPC,
		},
		Target: frame.ColConversions,
		Lambda: 0.5,
	}
}

// AllSpecs returns the three production pipeline specs.
func AllSpecs() []Spec {
	return []Spec{BidOptimization(), BudgetAllocation(), PerformancePrediction()}
}
