package optimize

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/adsctl/optimizer/internal/core/domain"
)

type fakeApplier struct {
	bidCalls    map[string]float64
	budgetCalls map[string]float64
	failFor     map[string]error
}

func newFakeApplier() *fakeApplier {
	return &fakeApplier{
		bidCalls:    make(map[string]float64),
		budgetCalls: make(map[string]float64),
		failFor:     make(map[string]error),
	}
}

func (f *fakeApplier) ApplyBidAdjustment(ctx context.Context, campaignID string, pct float64) error {
	if err := f.failFor[campaignID]; err != nil {
		return err
	}
	f.bidCalls[campaignID] = pct
	return nil
}

func (f *fakeApplier) ApplyBudgetChange(ctx context.Context, campaignID string, budget float64) error {
	if err := f.failFor[campaignID]; err != nil {
		return err
	}
	f.budgetCalls[campaignID] = budget
	return nil
}

func health(v int) *int { return &v }

func rec(id, name string, healthScore *int, bidPct, budgetPct float64) *domain.Recommendation {
	r := &domain.Recommendation{
		CampaignID:             id,
		CampaignName:           name,
		Timestamp:              time.Now().UTC(),
		OverallHealthScore:     healthScore,
		ImprovementSuggestions: []string{},
	}
	if bidPct != 0 {
		r.BidAdjustments = &domain.BidAdjustment{
			CurrentCPA:           10,
			RecommendedCPA:       10 * (1 + bidPct/100),
			AdjustmentPercentage: bidPct,
		}
	}
	if budgetPct != 0 {
		r.BudgetRecommendation = &domain.BudgetRecommendation{
			CurrentBudget:        100,
			RecommendedBudget:    100 * (1 + budgetPct/100),
			AdjustmentPercentage: budgetPct,
		}
	}
	return r
}

func setOf(recs ...*domain.Recommendation) *domain.RecommendationSet {
	set := &domain.RecommendationSet{
		AccountID: "123-456-7890",
		Timestamp: time.Now().UTC(),
		Campaigns: make(map[string]*domain.Recommendation),
	}
	for _, r := range recs {
		set.Campaigns[r.CampaignID] = r
	}
	return set
}

func TestAutoPolicy(t *testing.T) {
	tests := []struct {
		name string
		rec  *domain.Recommendation
		want bool
	}{
		{"unhealthy with large bid change", rec("c", "", health(60), 15, 0), true},
		{"unhealthy with large budget change", rec("c", "", health(60), 0, 12), true},
		{"unhealthy with small changes", rec("c", "", health(60), 5, 5), false},
		{"healthy with large changes", rec("c", "", health(85), 15, 15), false},
		{"health exactly at threshold", rec("c", "", health(70), 15, 15), false},
		{"bid exactly at threshold", rec("c", "", health(60), 10, 0), false},
		{"negative bid change counts by magnitude", rec("c", "", health(60), -15, 0), true},
		{"missing health treated as healthy", rec("c", "", nil, 15, 15), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (AutoPolicy{}).ShouldApply(tt.rec); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReview_MixedOutcomes(t *testing.T) {
	// c1 is approved but the API rejects it, c2 is left alone by policy,
	// c3 is approved and applied. The failure must not stop the batch.
	applier := newFakeApplier()
	applier.failFor["c1"] = status.Error(codes.InvalidArgument, "budget below minimum")

	set := setOf(
		rec("c1", "Alpha", health(40), 15, 15),
		rec("c2", "Beta", health(90), 2, 0),
		rec("c3", "Gamma", health(50), -18, -15),
	)

	r := NewReviewer(testExecutor(), applier, testLogger())
	summary := r.Review(context.Background(), set, AutoPolicy{})

	if summary.Applied != 1 {
		t.Errorf("Expected 1 applied, got %d", summary.Applied)
	}
	if summary.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", summary.Skipped)
	}
	if len(summary.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(summary.Results))
	}

	byID := make(map[string]ReviewResult)
	for _, res := range summary.Results {
		byID[res.CampaignID] = res
	}
	if res := byID["c1"]; res.ChangesApplied || res.Error == "" {
		t.Errorf("Expected c1 to fail with an error, got %+v", res)
	}
	if res := byID["c2"]; res.ChangesApplied || res.Error != "" {
		t.Errorf("Expected c2 skipped cleanly, got %+v", res)
	}
	if res := byID["c3"]; !res.ChangesApplied || res.Error != "" {
		t.Errorf("Expected c3 applied, got %+v", res)
	}
	if res := byID["c3"]; res.CampaignName != "Gamma" {
		t.Errorf("Expected campaign name on result, got %q", res.CampaignName)
	}

	if pct, ok := applier.bidCalls["c3"]; !ok || pct != -18 {
		t.Errorf("Expected bid adjustment -18 for c3, got %f (called=%v)", pct, ok)
	}
	if budget, ok := applier.budgetCalls["c3"]; !ok || budget != 85 {
		t.Errorf("Expected budget 85 for c3, got %f (called=%v)", budget, ok)
	}
	if _, ok := applier.bidCalls["c2"]; ok {
		t.Error("Expected no mutation calls for skipped campaign")
	}
}

func TestReview_SmallBidAdjustmentNotSent(t *testing.T) {
	// Approved on the strength of the budget change alone; a 3% bid nudge
	// is below the mutation floor and stays local.
	applier := newFakeApplier()
	set := setOf(rec("c1", "Alpha", health(40), 3, 15))

	r := NewReviewer(testExecutor(), applier, testLogger())
	summary := r.Review(context.Background(), set, AutoPolicy{})

	if summary.Applied != 1 {
		t.Fatalf("Expected 1 applied, got %d", summary.Applied)
	}
	if _, ok := applier.bidCalls["c1"]; ok {
		t.Error("Expected bid adjustment below 5%% to be withheld")
	}
	if budget := applier.budgetCalls["c1"]; budget != 115 {
		t.Errorf("Expected budget change 115, got %f", budget)
	}
}

func TestReview_ZeroBudgetNotSent(t *testing.T) {
	applier := newFakeApplier()
	r := rec("c1", "Alpha", health(40), 15, 0)
	r.BudgetRecommendation = &domain.BudgetRecommendation{
		CurrentBudget:        0,
		RecommendedBudget:    0,
		AdjustmentPercentage: 0,
	}
	set := setOf(r)

	reviewer := NewReviewer(testExecutor(), applier, testLogger())
	summary := reviewer.Review(context.Background(), set, AutoPolicy{})

	if summary.Applied != 1 {
		t.Fatalf("Expected 1 applied, got %d", summary.Applied)
	}
	if _, ok := applier.budgetCalls["c1"]; ok {
		t.Error("Expected zero budget target to be withheld")
	}
	if pct := applier.bidCalls["c1"]; pct != 15 {
		t.Errorf("Expected bid adjustment 15, got %f", pct)
	}
}

func TestReview_InteractivePolicy(t *testing.T) {
	applier := newFakeApplier()
	set := setOf(
		rec("c1", "Alpha", health(95), 15, 15),
		rec("c2", "Beta", health(95), 15, 15),
	)

	var prompted []string
	policy := InteractivePolicy{Decide: func(r *domain.Recommendation) bool {
		prompted = append(prompted, r.CampaignID)
		return r.CampaignID == "c2"
	}}

	reviewer := NewReviewer(testExecutor(), applier, testLogger())
	summary := reviewer.Review(context.Background(), set, policy)

	if len(prompted) != 2 || prompted[0] != "c1" || prompted[1] != "c2" {
		t.Errorf("Expected prompts in sorted order [c1 c2], got %v", prompted)
	}
	if summary.Applied != 1 || summary.Skipped != 1 {
		t.Errorf("Expected 1 applied and 1 skipped, got %d/%d", summary.Applied, summary.Skipped)
	}
	if _, ok := applier.bidCalls["c1"]; ok {
		t.Error("Expected declined campaign to be untouched")
	}
	if _, ok := applier.bidCalls["c2"]; !ok {
		t.Error("Expected approved campaign to be applied")
	}
}

func TestReview_CancelledContextStopsBatch(t *testing.T) {
	applier := newFakeApplier()
	set := setOf(
		rec("c1", "Alpha", health(40), 15, 15),
		rec("c2", "Beta", health(40), 15, 15),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reviewer := NewReviewer(testExecutor(), applier, testLogger())
	summary := reviewer.Review(ctx, set, AutoPolicy{})

	if len(summary.Results) != 0 {
		t.Errorf("Expected no results after cancellation, got %d", len(summary.Results))
	}
	if len(applier.bidCalls) != 0 {
		t.Error("Expected no mutation calls after cancellation")
	}
}
