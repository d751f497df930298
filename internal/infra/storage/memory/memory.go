package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/storage"
)

// MemoryStorage backs the repositories with maps for tests and local runs.
type MemoryStorage struct {
	metrics         map[string]*domain.CampaignMetrics
	recommendations []*storage.StoredRecommendation
	mu              sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		metrics: make(map[string]*domain.CampaignMetrics),
	}
}

func metricsKey(accountID, campaignID string, date time.Time) string {
	return accountID + "|" + campaignID + "|" + date.Format("2006-01-02")
}

// -----------------------------------------------------------------------------
// Metrics Repository
// -----------------------------------------------------------------------------

type MetricsRepo struct {
	store *MemoryStorage
}

func NewMetricsRepo(store *MemoryStorage) *MetricsRepo {
	return &MetricsRepo{store: store}
}

func (r *MetricsRepo) SaveBatch(ctx context.Context, rows []*domain.CampaignMetrics) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, row := range rows {
		key := metricsKey(row.AccountID, row.CampaignID, row.Date)
		r.store.metrics[key] = row
	}
	return nil
}

func (r *MetricsRepo) History(ctx context.Context, accountID string, since time.Time) ([]*domain.CampaignMetrics, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.CampaignMetrics
	for _, m := range r.store.metrics {
		if m.AccountID == accountID && !m.Date.Before(since) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CampaignID < out[j].CampaignID
	})
	return out, nil
}

func (r *MetricsRepo) LatestDate(ctx context.Context, accountID string) (time.Time, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var latest time.Time
	for _, m := range r.store.metrics {
		if m.AccountID == accountID && m.Date.After(latest) {
			latest = m.Date
		}
	}
	return latest, nil
}

func (r *MetricsRepo) CountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, m := range r.store.metrics {
		if m.AccountID == accountID && !m.Date.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *MetricsRepo) DeleteBefore(ctx context.Context, accountID string, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for key, m := range r.store.metrics {
		if m.AccountID == accountID && m.Date.Before(cutoff) {
			delete(r.store.metrics, key)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Recommendation Repository
// -----------------------------------------------------------------------------

type RecommendationRepo struct {
	store *MemoryStorage
}

func NewRecommendationRepo(store *MemoryStorage) *RecommendationRepo {
	return &RecommendationRepo{store: store}
}

func (r *RecommendationRepo) Save(ctx context.Context, rec *storage.StoredRecommendation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.recommendations = append(r.store.recommendations, rec)
	return nil
}

func (r *RecommendationRepo) SaveBatch(ctx context.Context, recs []*storage.StoredRecommendation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.recommendations = append(r.store.recommendations, recs...)
	return nil
}

func (r *RecommendationRepo) ListByRun(ctx context.Context, accountID, runID string) ([]*storage.StoredRecommendation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*storage.StoredRecommendation
	for _, rec := range r.store.recommendations {
		if rec.AccountID == accountID && rec.RunID == runID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CampaignID < out[j].CampaignID
	})
	return out, nil
}

func (r *RecommendationRepo) Latest(ctx context.Context, accountID, campaignID string) (*storage.StoredRecommendation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var latest *storage.StoredRecommendation
	for _, rec := range r.store.recommendations {
		if rec.AccountID == accountID && rec.CampaignID == campaignID {
			if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
				latest = rec
			}
		}
	}
	return latest, nil
}

func (r *RecommendationRepo) DeleteBefore(ctx context.Context, accountID string, cutoff time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.recommendations[:0]
	for _, rec := range r.store.recommendations {
		if rec.AccountID == accountID && rec.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}
	r.store.recommendations = kept
	return nil
}
