package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adsctl/optimizer/internal/core/domain"
	"github.com/adsctl/optimizer/internal/optimize"
)

var (
	inputPath string
	autoApply bool
	assumeYes bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Review recommendations and push approved changes",
	Run:   runApply,
}

func init() {
	applyCmd.Flags().StringVar(&inputPath, "input", "", "recommendations JSON file (default: generate a fresh run)")
	applyCmd.Flags().BoolVar(&autoApply, "auto", false, "apply without prompting to unhealthy campaigns with significant changes")
	applyCmd.Flags().BoolVar(&assumeYes, "yes", false, "approve every campaign without prompting")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newApp(cfg)
	accountID := resolveAccount(cfg)
	ctx := context.Background()

	var set *domain.RecommendationSet
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			slog.Error("Failed to read recommendations", "path", inputPath, "error", err)
			os.Exit(1)
		}
		set = &domain.RecommendationSet{}
		if err := json.Unmarshal(data, set); err != nil {
			slog.Error("Failed to parse recommendations", "path", inputPath, "error", err)
			os.Exit(1)
		}
	} else {
		var err error
		set, err = app.RecommendAll(ctx, accountID, false)
		if err != nil {
			slog.Error("Recommendation failed", "account", accountID, "error", err)
			os.Exit(1)
		}
	}

	summary, err := app.Apply(ctx, accountID, set, pickPolicy())
	if err != nil {
		slog.Error("Apply failed", "account", accountID, "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CAMPAIGN\tNAME\tAPPLIED\tERROR")
	for _, result := range summary.Results {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", result.CampaignID, result.CampaignName, result.ChangesApplied, result.Error)
	}
	_ = w.Flush()
	fmt.Printf("Applied %d, skipped %d\n", summary.Applied, summary.Skipped)
}

// pickPolicy maps the flags onto a review policy: --auto for the health and
// significance gate, --yes for blanket approval, otherwise a terminal prompt
// per campaign.
func pickPolicy() optimize.Policy {
	if autoApply {
		return optimize.AutoPolicy{}
	}
	if assumeYes {
		return optimize.InteractivePolicy{Decide: func(*domain.Recommendation) bool { return true }}
	}

	reader := bufio.NewReader(os.Stdin)
	return optimize.InteractivePolicy{Decide: func(rec *domain.Recommendation) bool {
		name := rec.CampaignName
		if name == "" {
			name = rec.CampaignID
		}
		fmt.Printf("Apply changes to campaign '%s' (bid %+.1f%%, budget %+.1f%%)? (y/n): ",
			name, rec.BidAdjustmentPct(), rec.BudgetAdjustmentPct())
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}}
}
