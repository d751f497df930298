package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/adsctl/optimizer/internal/control"
)

// TestGracefulShutdown starts the full service in memory mode with sync
// enabled and verifies everything winds down cleanly.
func TestGracefulShutdown(t *testing.T) {
	facade := newAdsFacade()
	defer facade.server.Close()

	cfg := testConfig(facade.server.URL, "")
	cfg.Sync.Enabled = true
	cfg.Sync.IntervalMinutes = 1

	app, err := control.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create optimizer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let the immediate sync pass run.
	time.Sleep(200 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	acct, err := app.Registry().Get(testAccount)
	if err != nil {
		t.Fatalf("Get account failed: %v", err)
	}

	// Stop returns before the loop goroutine observes the close; poll
	// briefly instead of asserting immediately.
	deadline := time.Now().Add(2 * time.Second)
	for acct.Syncer.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if acct.Syncer.Running() {
		t.Error("Sync worker still running after Stop")
	}
}
