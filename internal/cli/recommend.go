package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	recommendCampaign string
	includePaused     bool
	outputPath        string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate recommendations from the trained models",
	Run:   runRecommend,
}

func init() {
	recommendCmd.Flags().StringVar(&recommendCampaign, "campaign", "", "limit to one campaign ID")
	recommendCmd.Flags().BoolVar(&includePaused, "include-paused", false, "include paused campaigns")
	recommendCmd.Flags().StringVar(&outputPath, "output", "", "write the JSON payload to a file instead of stdout")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newApp(cfg)
	accountID := resolveAccount(cfg)
	ctx := context.Background()

	var payload any
	if recommendCampaign != "" {
		rec, err := app.Recommend(ctx, accountID, recommendCampaign)
		if err != nil {
			slog.Error("Recommendation failed", "account", accountID, "campaign", recommendCampaign, "error", err)
			os.Exit(1)
		}
		payload = rec
	} else {
		set, err := app.RecommendAll(ctx, accountID, includePaused)
		if err != nil {
			slog.Error("Recommendation failed", "account", accountID, "error", err)
			os.Exit(1)
		}
		payload = set
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		slog.Error("Failed to encode recommendations", "error", err)
		os.Exit(1)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			slog.Error("Failed to write recommendations", "path", outputPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Recommendations saved", "path", outputPath)
		return
	}
	fmt.Println(string(data))
}
