package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/storage"
)

// RecommendationRepo implements storage.RecommendationRepository using
// PostgreSQL. Payloads are stored as JSONB so the schema survives payload
// evolution.
type RecommendationRepo struct {
	db *DB
}

// NewRecommendationRepo creates a new PostgreSQL recommendation repository.
func NewRecommendationRepo(db *DB) *RecommendationRepo {
	return &RecommendationRepo{db: db}
}

const insertRecommendation = `
	INSERT INTO recommendations (id, account_id, run_id, campaign_id, created_at, payload)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// Save persists one recommendation.
func (r *RecommendationRepo) Save(ctx context.Context, rec *storage.StoredRecommendation) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode recommendation: %w", err)
	}

	_, err = r.db.ExecContext(ctx, insertRecommendation,
		rec.ID,
		rec.AccountID,
		rec.RunID,
		rec.CampaignID,
		rec.CreatedAt,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save recommendation: %w", err)
	}
	return nil
}

// SaveBatch persists a whole run atomically.
func (r *RecommendationRepo) SaveBatch(ctx context.Context, recs []*storage.StoredRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRecommendation)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		payload, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode recommendation: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			rec.ID,
			rec.AccountID,
			rec.RunID,
			rec.CampaignID,
			rec.CreatedAt,
			payload,
		)
		if err != nil {
			return fmt.Errorf("failed to save recommendation: %w", err)
		}
	}

	return tx.Commit()
}

type recommendationRow struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"account_id"`
	RunID      string    `db:"run_id"`
	CampaignID string    `db:"campaign_id"`
	CreatedAt  time.Time `db:"created_at"`
	Payload    []byte    `db:"payload"`
}

func (row *recommendationRow) toDomain() (*storage.StoredRecommendation, error) {
	var payload domain.Recommendation
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation %s: %w", row.ID, err)
	}
	return &storage.StoredRecommendation{
		ID:         row.ID,
		AccountID:  row.AccountID,
		RunID:      row.RunID,
		CampaignID: row.CampaignID,
		CreatedAt:  row.CreatedAt,
		Payload:    &payload,
	}, nil
}

// ListByRun returns the run's recommendations ordered by campaign ID.
func (r *RecommendationRepo) ListByRun(ctx context.Context, accountID, runID string) ([]*storage.StoredRecommendation, error) {
	query := `
		SELECT id, account_id, run_id, campaign_id, created_at, payload
		FROM recommendations
		WHERE account_id = $1 AND run_id = $2
		ORDER BY campaign_id ASC
	`

	var rows []recommendationRow
	if err := r.db.SelectContext(ctx, &rows, query, accountID, runID); err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}

	out := make([]*storage.StoredRecommendation, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Latest returns the newest recommendation for a campaign.
func (r *RecommendationRepo) Latest(ctx context.Context, accountID, campaignID string) (*storage.StoredRecommendation, error) {
	query := `
		SELECT id, account_id, run_id, campaign_id, created_at, payload
		FROM recommendations
		WHERE account_id = $1 AND campaign_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var row recommendationRow
	err := r.db.GetContext(ctx, &row, query, accountID, campaignID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest recommendation: %w", err)
	}
	return row.toDomain()
}

// DeleteBefore removes the account's recommendations created before the cutoff.
func (r *RecommendationRepo) DeleteBefore(ctx context.Context, accountID string, cutoff time.Time) error {
	query := `
		DELETE FROM recommendations
		WHERE account_id = $1 AND created_at < $2
	`

	if _, err := r.db.ExecContext(ctx, query, accountID, cutoff); err != nil {
		return fmt.Errorf("failed to delete old recommendations: %w", err)
	}
	return nil
}
