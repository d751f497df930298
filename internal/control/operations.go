package control

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/storage"
	"github.com/adsctl/optimizer/internal/optimize"
	"github.com/adsctl/optimizer/internal/optimize/frame"
)

// TrainAccount mirrors fresh metrics for the account and trains its models
// on the lookback window. Trained artifacts are persisted; a model that
// fails on insufficient data is reported in the result without blocking the
// others.
func (o *Optimizer) TrainAccount(ctx context.Context, accountID string) (*optimize.TrainReport, error) {
	acct, err := o.registry.Get(accountID)
	if err != nil {
		return nil, err
	}

	if err := acct.Syncer.SyncOnce(ctx); err != nil {
		return nil, fmt.Errorf("sync metrics: %w", err)
	}

	rows, err := o.metrics.History(ctx, accountID, o.lookbackStart())
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	report := acct.Engine.Train(frame.FromMetrics(rows), o.cfg.Optimizer.MinDataPoints)
	if len(report.Results) > 0 {
		if err := acct.Engine.SaveModels(ctx, o.artifacts); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// Recommend generates the recommendation payload for a single campaign using
// the account's stored models.
func (o *Optimizer) Recommend(ctx context.Context, accountID, campaignID string) (*domain.Recommendation, error) {
	acct, err := o.registry.Get(accountID)
	if err != nil {
		return nil, err
	}
	if err := acct.Engine.LoadModels(ctx, o.artifacts); err != nil {
		return nil, err
	}
	return acct.Engine.Recommend(ctx, campaignID)
}

// RecommendAll generates recommendations for every campaign in the account
// and persists the whole run under a fresh run ID.
func (o *Optimizer) RecommendAll(ctx context.Context, accountID string, includePaused bool) (*domain.RecommendationSet, error) {
	acct, err := o.registry.Get(accountID)
	if err != nil {
		return nil, err
	}
	if err := acct.Engine.LoadModels(ctx, o.artifacts); err != nil {
		return nil, err
	}

	set, err := acct.Engine.RecommendAll(ctx, includePaused)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	stored := make([]*storage.StoredRecommendation, 0, len(set.Campaigns))
	for _, id := range set.CampaignIDs() {
		stored = append(stored, &storage.StoredRecommendation{
			ID:         uuid.New().String(),
			AccountID:  accountID,
			RunID:      runID,
			CampaignID: id,
			CreatedAt:  set.Timestamp,
			Payload:    set.Campaigns[id],
		})
	}
	if err := o.recs.SaveBatch(ctx, stored); err != nil {
		return nil, fmt.Errorf("persist recommendations: %w", err)
	}
	o.log.Info("Stored recommendation run", "account", accountID, "run_id", runID, "campaigns", len(stored))

	return set, nil
}

// Apply reviews a recommendation set under the given policy and pushes the
// approved changes through the account's executor.
func (o *Optimizer) Apply(ctx context.Context, accountID string, set *domain.RecommendationSet, policy optimize.Policy) (*optimize.ReviewSummary, error) {
	acct, err := o.registry.Get(accountID)
	if err != nil {
		return nil, err
	}
	reviewer := optimize.NewReviewer(acct.Executor, acct.Applier, o.log)
	return reviewer.Review(ctx, set, policy), nil
}

// AccountStatus summarizes one account's remote details and local state.
type AccountStatus struct {
	Account      *domain.Account `json:"account"`
	Campaigns    int             `json:"campaigns"`
	MirroredRows int64           `json:"mirrored_rows"`
	LatestMirror time.Time       `json:"latest_mirror"`
	Models       map[string]bool `json:"models"`
}

// Status collects account details, campaign count, mirror freshness and
// model readiness.
func (o *Optimizer) Status(ctx context.Context, accountID string) (*AccountStatus, error) {
	acct, err := o.registry.Get(accountID)
	if err != nil {
		return nil, err
	}

	st := &AccountStatus{}

	err = acct.Executor.Do(ctx, "AccountInfo", func(ctx context.Context) error {
		info, err := acct.Source.AccountInfo(ctx)
		if err != nil {
			return err
		}
		st.Account = info
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch account info: %w", err)
	}

	err = acct.Executor.Do(ctx, "ListCampaigns", func(ctx context.Context) error {
		campaigns, err := acct.Source.ListCampaigns(ctx, true)
		if err != nil {
			return err
		}
		st.Campaigns = len(campaigns)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}

	latest, err := o.metrics.LatestDate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("read mirror state: %w", err)
	}
	st.LatestMirror = latest

	count, err := o.metrics.CountSince(ctx, accountID, o.lookbackStart())
	if err != nil {
		return nil, fmt.Errorf("read mirror state: %w", err)
	}
	st.MirroredRows = count

	if err := acct.Engine.LoadModels(ctx, o.artifacts); err != nil {
		return nil, err
	}
	st.Models = acct.Engine.ModelStatus()

	return st, nil
}

// lookbackStart returns midnight UTC minus the configured training window.
func (o *Optimizer) lookbackStart() time.Time {
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(-o.cfg.Optimizer.Lookback())
}
