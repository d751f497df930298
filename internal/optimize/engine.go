// Package optimize turns trained models and live campaign performance into
// actionable recommendations, and reviews batches of them for application.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/ads"
	"github.com/adsctl/optimizer/internal/metrics"
	"github.com/adsctl/optimizer/internal/optimize/frame"
	"github.com/adsctl/optimizer/internal/optimize/model"
)

// Engine generates recommendations for one account's campaigns. Each of the
// three pipelines contributes one section of the payload; an untrained
// pipeline silently drops its section so the rest still come through.
type Engine struct {
	account string
	exec    *ads.Executor
	source  ads.Source
	bid     *model.Pipeline
	budget  *model.Pipeline
	perf    *model.Pipeline
	logger  *slog.Logger
}

// NewEngine creates an engine with all three pipelines untrained. Call
// Train or LoadModels before expecting full recommendations.
func NewEngine(account string, exec *ads.Executor, source ads.Source, logger *slog.Logger) *Engine {
	return &Engine{
		account: account,
		exec:    exec,
		source:  source,
		bid:     model.NewPipeline(model.BidOptimization()),
		budget:  model.NewPipeline(model.BudgetAllocation()),
		perf:    model.NewPipeline(model.PerformancePrediction()),
		logger:  logger,
	}
}

func (e *Engine) pipelines() []*model.Pipeline {
	return []*model.Pipeline{e.bid, e.budget, e.perf}
}

// TrainReport collects per-model training outcomes for one run.
type TrainReport struct {
	Results map[string]*model.TrainResult `json:"results"`
	Errors  map[string]error              `json:"-"`
}

// Train fits all three pipelines on the given history. A model that fails,
// typically on insufficient data, is recorded in the report and the
// remaining models still train.
func (e *Engine) Train(f *frame.Frame, minDataPoints int) *TrainReport {
	report := &TrainReport{
		Results: make(map[string]*model.TrainResult),
		Errors:  make(map[string]error),
	}
	for _, p := range e.pipelines() {
		result, err := p.Train(f, minDataPoints)
		if err != nil {
			report.Errors[p.Name()] = err
			e.logger.Warn("model training failed", "model", p.Name(), "err", err)
			continue
		}
		report.Results[p.Name()] = result
		metrics.ModelTrainScore.WithLabelValues(e.account, p.Name()).Set(result.TrainScore)
		metrics.ModelTestScore.WithLabelValues(e.account, p.Name()).Set(result.TestScore)
		e.logger.Info("model trained",
			"model", p.Name(),
			"rows", result.TrainedOn,
			"train_score", result.TrainScore,
			"test_score", result.TestScore)
	}
	return report
}

// SaveModels persists every trained pipeline to the artifact store under
// the account's scope.
func (e *Engine) SaveModels(ctx context.Context, store model.ArtifactStore) error {
	for _, p := range e.pipelines() {
		if !p.Trained() {
			continue
		}
		if err := p.Save(ctx, store, e.account); err != nil {
			return fmt.Errorf("save model %s: %w", p.Name(), err)
		}
	}
	return nil
}

// LoadModels restores whatever artifacts exist for the account. A missing
// artifact leaves its pipeline untrained and is not an error.
func (e *Engine) LoadModels(ctx context.Context, store model.ArtifactStore) error {
	for _, p := range e.pipelines() {
		err := p.Load(ctx, store, e.account)
		if errors.Is(err, model.ErrArtifactNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load model %s: %w", p.Name(), err)
		}
	}
	return nil
}

// ModelStatus reports per model whether it is currently trained.
func (e *Engine) ModelStatus() map[string]bool {
	status := make(map[string]bool, 3)
	for _, p := range e.pipelines() {
		status[p.Name()] = p.Trained()
	}
	return status
}

// Recommend builds the recommendation payload for one campaign from its
// recent performance snapshot. A campaign with no data fails with
// domain.ErrNoData.
func (e *Engine) Recommend(ctx context.Context, campaignID string) (*domain.Recommendation, error) {
	var snap *domain.CampaignMetrics
	err := e.exec.Do(ctx, "CampaignSnapshot", func(ctx context.Context) error {
		var err error
		snap, err = e.source.CampaignSnapshot(ctx, campaignID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch metrics for campaign %s: %w", campaignID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, domain.ErrNoData)
	}

	rec := &domain.Recommendation{
		CampaignID:             campaignID,
		Timestamp:              time.Now().UTC(),
		ImprovementSuggestions: []string{},
	}

	e.addBidAdjustment(rec, snap)
	e.addBudgetRecommendation(rec, snap)
	e.addPerformanceForecast(rec, snap)
	e.addHealthScore(rec, snap)

	metrics.RecommendationsTotal.WithLabelValues(e.account).Inc()
	metrics.CampaignHealthScore.WithLabelValues(e.account, campaignID).Set(float64(rec.HealthScore()))
	return rec, nil
}

// RecommendAll generates recommendations for every campaign in the account
// and returns them as one set. A failure on one campaign is logged and
// skipped so the rest of the batch survives; context cancellation stops
// the batch.
func (e *Engine) RecommendAll(ctx context.Context, includePaused bool) (*domain.RecommendationSet, error) {
	var campaigns []*domain.Campaign
	err := e.exec.Do(ctx, "ListCampaigns", func(ctx context.Context) error {
		var err error
		campaigns, err = e.source.ListCampaigns(ctx, includePaused)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	set := &domain.RecommendationSet{
		AccountID: e.account,
		Timestamp: time.Now().UTC(),
		Campaigns: make(map[string]*domain.Recommendation),
	}
	for _, c := range campaigns {
		rec, err := e.Recommend(ctx, c.ID)
		if err != nil {
			if ctx.Err() != nil {
				return set, ctx.Err()
			}
			e.logger.Warn("skipping campaign", "campaign", c.ID, "name", c.Name, "err", err)
			continue
		}
		rec.CampaignName = c.Name
		set.Campaigns[c.ID] = rec
	}
	return set, nil
}

// skipSection logs why a recommendation section was dropped. Untrained
// models are routine and logged at debug only.
func (e *Engine) skipSection(section string, err error) {
	if errors.Is(err, model.ErrNotTrained) {
		e.logger.Debug("model not trained, skipping section", "section", section)
		return
	}
	e.logger.Warn("skipping recommendation section", "section", section, "err", err)
}

func (e *Engine) addBidAdjustment(rec *domain.Recommendation, m *domain.CampaignMetrics) {
	optimalCPA, err := e.bid.Predict(map[string]float64{
		frame.ColCost:        m.Cost,
		frame.ColClicks:      m.Clicks,
		frame.ColImpressions: m.Impressions,
		frame.ColCTR:         m.CTR,
		frame.ColAverageCPC:  m.AverageCPC,
		frame.ColAverageCPM:  m.AverageCPM,
	})
	if err != nil {
		e.skipSection("bid_adjustments", err)
		return
	}

	// A campaign without conversions has no CPA of its own; compare the
	// prediction against itself so the adjustment comes out neutral.
	currentCPA := m.CostPerConversion()
	if currentCPA <= 0 {
		currentCPA = optimalCPA
	}
	pct := 0.0
	if currentCPA > 0 {
		pct = (optimalCPA/currentCPA - 1) * 100
	}
	pct = clamp(pct, -20, 20)

	rec.BidAdjustments = &domain.BidAdjustment{
		CurrentCPA:           m.CostPerConversion(),
		RecommendedCPA:       optimalCPA,
		AdjustmentPercentage: pct,
	}

	if pct < -5 {
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Consider decreasing bids as the current CPA is higher than optimal")
	} else if pct > 5 {
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Consider increasing bids to capture more conversions at a still-profitable CPA")
	}
}

func (e *Engine) addBudgetRecommendation(rec *domain.Recommendation, m *domain.CampaignMetrics) {
	expectedROAS, err := e.budget.Predict(map[string]float64{
		frame.ColImpressions:    m.Impressions,
		frame.ColClicks:         m.Clicks,
		frame.ColConversions:    m.Conversions,
		frame.ColCTR:            m.CTR,
		frame.ColConversionRate: m.ConversionRate(),
	})
	if err != nil {
		e.skipSection("budget_recommendation", err)
		return
	}

	efficiency := 1.0
	if expectedROAS > 0 {
		efficiency = m.ROAS() / expectedROAS
	}

	newBudget := m.Budget
	switch {
	case efficiency > 1.2:
		newBudget = m.Budget * 1.2
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Campaign is performing well above expectations. Consider increasing budget.")
	case efficiency < 0.8:
		newBudget = m.Budget * 0.8
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Campaign is performing below expectations. Consider decreasing budget or optimizing targeting.")
	}

	pct := 0.0
	if m.Budget > 0 {
		pct = (newBudget/m.Budget - 1) * 100
	}
	rec.BudgetRecommendation = &domain.BudgetRecommendation{
		CurrentBudget:        m.Budget,
		RecommendedBudget:    newBudget,
		AdjustmentPercentage: pct,
	}
}

func (e *Engine) addPerformanceForecast(rec *domain.Recommendation, m *domain.CampaignMetrics) {
	expected, err := e.perf.Predict(map[string]float64{
		frame.ColBudget:      m.Budget,
		frame.ColCost:        m.Cost,
		frame.ColImpressions: m.Impressions,
		frame.ColClicks:      m.Clicks,
		frame.ColCTR:         m.CTR,
		frame.ColAverageCPC:  m.AverageCPC,
	})
	if err != nil {
		e.skipSection("performance_forecast", err)
		return
	}

	expectedScaled, err := e.perf.Predict(map[string]float64{
		frame.ColBudget:      m.Budget * 1.2,
		frame.ColCost:        m.Cost * 1.2,
		frame.ColImpressions: m.Impressions,
		frame.ColClicks:      m.Clicks,
		frame.ColCTR:         m.CTR,
		frame.ColAverageCPC:  m.AverageCPC,
	})
	if err != nil {
		e.skipSection("performance_forecast", err)
		return
	}

	rec.PerformanceForecast = &domain.PerformanceForecast{
		CurrentConversions:                     m.Conversions,
		ExpectedConversions:                    expected,
		ExpectedConversionsWith20PctMoreBudget: expectedScaled,
	}

	if expected < m.Conversions*0.9 {
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Conversion performance may be declining. Review ad creative and landing pages.")
	} else if expectedScaled > expected*1.3 {
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Campaign shows strong potential with additional budget. Consider scaling up spend.")
	}
}

func (e *Engine) addHealthScore(rec *domain.Recommendation, m *domain.CampaignMetrics) {
	score := healthScore(m)
	rec.OverallHealthScore = &score

	switch {
	case score < 50:
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Campaign health is concerning. Consider a comprehensive review of targeting, ad creative, and bidding strategy.")
	case score < 70:
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Campaign health is below average. Focus on improving the weakest performance metrics.")
	case score > 90:
		rec.ImprovementSuggestions = append(rec.ImprovementSuggestions,
			"Campaign health is excellent. Consider scaling up or applying similar strategies to other campaigns.")
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
