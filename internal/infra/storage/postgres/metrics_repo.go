package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
)

// MetricsRepo implements storage.MetricsRepository using PostgreSQL.
type MetricsRepo struct {
	db *DB
}

// NewMetricsRepo creates a new PostgreSQL metrics repository.
func NewMetricsRepo(db *DB) *MetricsRepo {
	return &MetricsRepo{db: db}
}

// SaveBatch upserts daily rows keyed by account, campaign and date.
func (r *MetricsRepo) SaveBatch(ctx context.Context, rows []*domain.CampaignMetrics) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaign_metrics (
			account_id, campaign_id, campaign_name, date,
			impressions, clicks, cost, conversions, conversions_value,
			ctr, average_cpc, average_cpm, budget
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (account_id, campaign_id, date) DO UPDATE SET
			campaign_name = EXCLUDED.campaign_name,
			impressions = EXCLUDED.impressions,
			clicks = EXCLUDED.clicks,
			cost = EXCLUDED.cost,
			conversions = EXCLUDED.conversions,
			conversions_value = EXCLUDED.conversions_value,
			ctr = EXCLUDED.ctr,
			average_cpc = EXCLUDED.average_cpc,
			average_cpm = EXCLUDED.average_cpm,
			budget = EXCLUDED.budget
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.AccountID,
			row.CampaignID,
			row.CampaignName,
			row.Date,
			int64(row.Impressions),
			int64(row.Clicks),
			row.Cost,
			row.Conversions,
			row.ConversionsValue,
			row.CTR,
			row.AverageCPC,
			row.AverageCPM,
			row.Budget,
		)
		if err != nil {
			return fmt.Errorf("failed to save metrics row: %w", err)
		}
	}

	return tx.Commit()
}

type metricsRow struct {
	AccountID        string    `db:"account_id"`
	CampaignID       string    `db:"campaign_id"`
	CampaignName     string    `db:"campaign_name"`
	Date             time.Time `db:"date"`
	Impressions      int64     `db:"impressions"`
	Clicks           int64     `db:"clicks"`
	Cost             float64   `db:"cost"`
	Conversions      float64   `db:"conversions"`
	ConversionsValue float64   `db:"conversions_value"`
	CTR              float64   `db:"ctr"`
	AverageCPC       float64   `db:"average_cpc"`
	AverageCPM       float64   `db:"average_cpm"`
	Budget           float64   `db:"budget"`
}

func (m *metricsRow) toDomain() *domain.CampaignMetrics {
	return &domain.CampaignMetrics{
		AccountID:        m.AccountID,
		CampaignID:       m.CampaignID,
		CampaignName:     m.CampaignName,
		Date:             m.Date,
		Impressions:      float64(m.Impressions),
		Clicks:           float64(m.Clicks),
		Cost:             m.Cost,
		Conversions:      m.Conversions,
		ConversionsValue: m.ConversionsValue,
		CTR:              m.CTR,
		AverageCPC:       m.AverageCPC,
		AverageCPM:       m.AverageCPM,
		Budget:           m.Budget,
	}
}

// History returns the account's rows on or after the given date.
func (r *MetricsRepo) History(ctx context.Context, accountID string, since time.Time) ([]*domain.CampaignMetrics, error) {
	query := `
		SELECT account_id, campaign_id, campaign_name, date,
			impressions, clicks, cost, conversions, conversions_value,
			ctr, average_cpc, average_cpm, budget
		FROM campaign_metrics
		WHERE account_id = $1 AND date >= $2
		ORDER BY date ASC, campaign_id ASC
	`

	var rows []metricsRow
	if err := r.db.SelectContext(ctx, &rows, query, accountID, since); err != nil {
		return nil, fmt.Errorf("failed to load metrics history: %w", err)
	}

	out := make([]*domain.CampaignMetrics, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// LatestDate returns the most recent mirrored date for the account.
func (r *MetricsRepo) LatestDate(ctx context.Context, accountID string) (time.Time, error) {
	query := `
		SELECT date
		FROM campaign_metrics
		WHERE account_id = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var latest time.Time
	err := r.db.GetContext(ctx, &latest, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil // Nothing mirrored yet
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest metrics date: %w", err)
	}
	return latest, nil
}

// CountSince counts the account's rows on or after the given date.
func (r *MetricsRepo) CountSince(ctx context.Context, accountID string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM campaign_metrics
		WHERE account_id = $1 AND date >= $2
	`

	var count int64
	if err := r.db.GetContext(ctx, &count, query, accountID, since); err != nil {
		return 0, fmt.Errorf("failed to count metrics rows: %w", err)
	}
	return count, nil
}

// DeleteBefore removes the account's rows dated before the cutoff.
func (r *MetricsRepo) DeleteBefore(ctx context.Context, accountID string, cutoff time.Time) error {
	query := `
		DELETE FROM campaign_metrics
		WHERE account_id = $1 AND date < $2
	`

	if _, err := r.db.ExecContext(ctx, query, accountID, cutoff); err != nil {
		return fmt.Errorf("failed to delete old metrics: %w", err)
	}
	return nil
}
