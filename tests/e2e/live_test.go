package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adsctl/optimizer/internal/control"
	"github.com/adsctl/optimizer/internal/core/config"
	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/infra/storage/postgres"
	"github.com/adsctl/optimizer/internal/optimize"
)

const testAccount = "123-456-7890"

// adsFacade is a stand-in for the remote Ads API serving one campaign with
// 120 days of self-consistent history. Mutations are recorded, not applied.
type adsFacade struct {
	server *httptest.Server

	mu      sync.Mutex
	bids    int
	budgets int
}

func newAdsFacade() *adsFacade {
	start := time.Now().UTC().AddDate(0, 0, -119)
	rows := make([]map[string]any, 0, 120)
	for i := 0; i < 120; i++ {
		impressions := 1000.0 + 10.0*float64(i)
		clicks := 100.0 + float64(i)
		cost := 50.0 + 0.5*float64(i)
		rows = append(rows, map[string]any{
			"campaignId":       "101",
			"campaignName":     "Search Alpha",
			"date":             start.AddDate(0, 0, i).Format("2006-01-02"),
			"impressions":      impressions,
			"clicks":           clicks,
			"costMicros":       int64(cost * 1e6),
			"conversions":      5.0 + 0.1*float64(i),
			"conversionsValue": 100.0 + 2.0*float64(i),
			"ctr":              clicks / impressions,
			"averageCpcMicros": int64(cost / clicks * 1e6),
			"averageCpmMicros": int64(cost / impressions * 1000 * 1e6),
			"budgetMicros":     int64((60.0 + 0.5*float64(i)) * 1e6),
		})
	}

	f := &adsFacade{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":adjustBids"):
			f.mu.Lock()
			f.bids++
			f.mu.Unlock()
			fmt.Fprint(w, `{}`)
		case strings.HasSuffix(r.URL.Path, ":setBudget"):
			f.mu.Lock()
			f.budgets++
			f.mu.Unlock()
			fmt.Fprint(w, `{}`)
		case strings.HasSuffix(r.URL.Path, "/campaigns/101/snapshot"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"campaignId":       "101",
				"campaignName":     "Search Alpha",
				"date":             time.Now().UTC().Format("2006-01-02"),
				"impressions":      1750.0,
				"clicks":           175.0,
				"costMicros":       int64(87500000),
				"conversions":      12.5,
				"conversionsValue": 250.0,
				"ctr":              0.1,
				"averageCpcMicros": int64(500000),
				"averageCpmMicros": int64(50000000),
				"budgetMicros":     int64(97500000),
			})
		case strings.HasSuffix(r.URL.Path, "/metrics/daily"):
			_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows})
		case strings.HasSuffix(r.URL.Path, "/campaigns"):
			fmt.Fprint(w, `{"campaigns":[{"id":"101","name":"Search Alpha","status":"ENABLED","budgetMicros":97500000}]}`)
		default:
			fmt.Fprint(w, `{"id":"1234567890","name":"Test Account","currencyCode":"USD","timeZone":"UTC"}`)
		}
	}))
	return f
}

func testConfig(endpoint, databaseURL string) *config.AppConfig {
	return &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Ads: config.AdsConfig{
			Endpoint:          endpoint,
			PageSize:          1000,
			MaxRetries:        1,
			RetryDelaySeconds: 0.01,
			BackoffFactor:     2.0,
			RequestsPerSecond: 1000,
			BurstSize:         100,
		},
		Accounts:  []config.AccountConfig{{ID: testAccount, Name: "Test Account"}},
		Optimizer: config.OptimizerConfig{LookbackDays: 180, MinDataPoints: 100},
		Sync:      config.SyncConfig{Enabled: false, IntervalMinutes: 60},
		Database:  postgres.Config{URL: databaseURL},
	}
}

// TestOptimizerFlow_Postgres drives the full train, recommend and apply flow
// against a real PostgreSQL instance. Set E2E_DATABASE_URL to run it.
func TestOptimizerFlow_Postgres(t *testing.T) {
	databaseURL := os.Getenv("E2E_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("Skipping live E2E test. Set E2E_DATABASE_URL to run.")
	}

	facade := newAdsFacade()
	defer facade.server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	app, err := control.New(testConfig(facade.server.URL, databaseURL))
	if err != nil {
		t.Fatalf("Failed to create optimizer: %v", err)
	}
	defer func() {
		_ = app.Stop(context.Background())
	}()

	// Side connection for inspection and cleanup. Migrations already ran in
	// control.New.
	db, err := postgres.NewDB(ctx, postgres.Config{URL: databaseURL})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()
	if _, err := db.ExecContext(ctx, "TRUNCATE campaign_metrics, recommendations"); err != nil {
		t.Fatalf("Failed to clean test tables: %v", err)
	}

	// Train: remote history mirrored into Postgres, three models fitted.
	report, err := app.TrainAccount(ctx, testAccount)
	if err != nil {
		t.Fatalf("TrainAccount failed: %v", err)
	}
	if len(report.Errors) != 0 {
		t.Fatalf("Expected clean training, got errors %v", report.Errors)
	}

	var mirrored int
	if err := db.GetContext(ctx, &mirrored, "SELECT COUNT(*) FROM campaign_metrics WHERE account_id = $1", testAccount); err != nil {
		t.Fatalf("Failed to count mirrored rows: %v", err)
	}
	if mirrored != 120 {
		t.Errorf("Expected 120 mirrored rows, got %d", mirrored)
	}

	// Training again must upsert, not duplicate.
	if _, err := app.TrainAccount(ctx, testAccount); err != nil {
		t.Fatalf("Second TrainAccount failed: %v", err)
	}
	if err := db.GetContext(ctx, &mirrored, "SELECT COUNT(*) FROM campaign_metrics WHERE account_id = $1", testAccount); err != nil {
		t.Fatalf("Failed to count mirrored rows: %v", err)
	}
	if mirrored != 120 {
		t.Errorf("Expected 120 rows after re-sync, got %d", mirrored)
	}

	// Recommend: the run is persisted with its payload intact.
	set, err := app.RecommendAll(ctx, testAccount, false)
	if err != nil {
		t.Fatalf("RecommendAll failed: %v", err)
	}
	if len(set.Campaigns) != 1 {
		t.Fatalf("Expected 1 recommendation, got %d", len(set.Campaigns))
	}

	var payload []byte
	if err := db.GetContext(ctx, &payload, "SELECT payload FROM recommendations WHERE account_id = $1 LIMIT 1", testAccount); err != nil {
		t.Fatalf("Failed to read stored recommendation: %v", err)
	}
	var stored domain.Recommendation
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("Stored payload does not decode: %v", err)
	}
	if stored.CampaignID != "101" {
		t.Errorf("Expected stored campaign 101, got %s", stored.CampaignID)
	}

	// Apply: blanket approval pushes the budget change to the facade.
	summary, err := app.Apply(ctx, testAccount, set, optimize.InteractivePolicy{
		Decide: func(*domain.Recommendation) bool { return true },
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if summary.Applied != 1 {
		t.Fatalf("Expected 1 applied campaign, got %d", summary.Applied)
	}

	facade.mu.Lock()
	budgets := facade.budgets
	facade.mu.Unlock()
	if budgets != 1 {
		t.Errorf("Expected 1 budget push, got %d", budgets)
	}
}
