package memory

import (
	"context"
	"testing"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/storage"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func row(campaignID string, d int, cost float64) *domain.CampaignMetrics {
	return &domain.CampaignMetrics{
		AccountID:  "123-456-7890",
		CampaignID: campaignID,
		Date:       day(d),
		Cost:       cost,
	}
}

func TestMetricsRepo_SaveBatchUpserts(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricsRepo(NewMemoryStorage())

	if err := repo.SaveBatch(ctx, []*domain.CampaignMetrics{row("c1", 1, 10)}); err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}
	if err := repo.SaveBatch(ctx, []*domain.CampaignMetrics{row("c1", 1, 25)}); err != nil {
		t.Fatalf("Expected second save to succeed, got %v", err)
	}

	rows, err := repo.History(ctx, "123-456-7890", day(1))
	if err != nil {
		t.Fatalf("Expected history, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected one row after upsert, got %d", len(rows))
	}
	if rows[0].Cost != 25 {
		t.Errorf("Expected upserted cost 25, got %f", rows[0].Cost)
	}
}

func TestMetricsRepo_HistoryOrderAndWindow(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricsRepo(NewMemoryStorage())

	err := repo.SaveBatch(ctx, []*domain.CampaignMetrics{
		row("c2", 3, 1),
		row("c1", 3, 2),
		row("c1", 1, 3),
		row("c1", 5, 4),
	})
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}

	rows, err := repo.History(ctx, "123-456-7890", day(3))
	if err != nil {
		t.Fatalf("Expected history, got %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows on or after day 3, got %d", len(rows))
	}
	if rows[0].CampaignID != "c1" || rows[1].CampaignID != "c2" || rows[2].CampaignID != "c1" {
		t.Errorf("Expected date-then-campaign order, got %s %s %s",
			rows[0].CampaignID, rows[1].CampaignID, rows[2].CampaignID)
	}

	count, err := repo.CountSince(ctx, "123-456-7890", day(3))
	if err != nil {
		t.Fatalf("Expected count, got %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}
}

func TestMetricsRepo_LatestDate(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricsRepo(NewMemoryStorage())

	latest, err := repo.LatestDate(ctx, "123-456-7890")
	if err != nil {
		t.Fatalf("Expected latest date, got %v", err)
	}
	if !latest.IsZero() {
		t.Errorf("Expected zero time for empty store, got %v", latest)
	}

	if err := repo.SaveBatch(ctx, []*domain.CampaignMetrics{row("c1", 2, 1), row("c1", 7, 1)}); err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}
	latest, err = repo.LatestDate(ctx, "123-456-7890")
	if err != nil {
		t.Fatalf("Expected latest date, got %v", err)
	}
	if !latest.Equal(day(7)) {
		t.Errorf("Expected latest date %v, got %v", day(7), latest)
	}
}

func TestRecommendationRepo_RunsAndLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()
	repo := NewRecommendationRepo(store)

	mk := func(id, runID, campaignID string, at time.Time) *storage.StoredRecommendation {
		return &storage.StoredRecommendation{
			ID:         id,
			AccountID:  "123-456-7890",
			RunID:      runID,
			CampaignID: campaignID,
			CreatedAt:  at,
			Payload:    &domain.Recommendation{CampaignID: campaignID},
		}
	}

	err := repo.SaveBatch(ctx, []*storage.StoredRecommendation{
		mk("r1", "run-1", "c2", day(1)),
		mk("r2", "run-1", "c1", day(1)),
		mk("r3", "run-2", "c1", day(2)),
	})
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}

	run1, err := repo.ListByRun(ctx, "123-456-7890", "run-1")
	if err != nil {
		t.Fatalf("Expected run listing, got %v", err)
	}
	if len(run1) != 2 || run1[0].CampaignID != "c1" || run1[1].CampaignID != "c2" {
		t.Errorf("Expected run-1 sorted by campaign, got %+v", run1)
	}

	latest, err := repo.Latest(ctx, "123-456-7890", "c1")
	if err != nil {
		t.Fatalf("Expected latest, got %v", err)
	}
	if latest == nil || latest.ID != "r3" {
		t.Errorf("Expected newest recommendation r3, got %+v", latest)
	}

	missing, err := repo.Latest(ctx, "123-456-7890", "nope")
	if err != nil {
		t.Fatalf("Expected nil for missing campaign, got error %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing campaign, got %+v", missing)
	}
}

func TestMetricsRepo_DeleteBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricsRepo(NewMemoryStorage())

	other := row("c9", 1, 1)
	other.AccountID = "999-000-1111"
	err := repo.SaveBatch(ctx, []*domain.CampaignMetrics{
		row("c1", 1, 1),
		row("c1", 5, 1),
		row("c1", 9, 1),
		other,
	})
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}

	if err := repo.DeleteBefore(ctx, "123-456-7890", day(5)); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	count, err := repo.CountSince(ctx, "123-456-7890", day(1))
	if err != nil {
		t.Fatalf("Expected count, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows on or after the cutoff, got %d", count)
	}

	otherCount, err := repo.CountSince(ctx, "999-000-1111", day(1))
	if err != nil {
		t.Fatalf("Expected count, got %v", err)
	}
	if otherCount != 1 {
		t.Errorf("Expected the other account untouched, got %d rows", otherCount)
	}
}

func TestRecommendationRepo_DeleteBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewRecommendationRepo(NewMemoryStorage())

	mk := func(id string, at time.Time) *storage.StoredRecommendation {
		return &storage.StoredRecommendation{
			ID:         id,
			AccountID:  "123-456-7890",
			RunID:      "run-1",
			CampaignID: "c1",
			CreatedAt:  at,
			Payload:    &domain.Recommendation{CampaignID: "c1"},
		}
	}

	err := repo.SaveBatch(ctx, []*storage.StoredRecommendation{
		mk("r1", day(1)),
		mk("r2", day(8)),
	})
	if err != nil {
		t.Fatalf("Expected save to succeed, got %v", err)
	}

	if err := repo.DeleteBefore(ctx, "123-456-7890", day(5)); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}

	latest, err := repo.Latest(ctx, "123-456-7890", "c1")
	if err != nil {
		t.Fatalf("Expected latest, got %v", err)
	}
	if latest == nil || latest.ID != "r2" {
		t.Errorf("Expected only r2 to survive, got %+v", latest)
	}

	run, err := repo.ListByRun(ctx, "123-456-7890", "run-1")
	if err != nil {
		t.Fatalf("Expected run listing, got %v", err)
	}
	if len(run) != 1 {
		t.Errorf("Expected 1 surviving recommendation, got %d", len(run))
	}
}
