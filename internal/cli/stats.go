package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adsctl/optimizer/internal/infra/ads"
)

var resetStats bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show API request statistics of the running service",
	Run:   runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&resetStats, "reset", false, "reset the counters after printing")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	base := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	resp, err := http.Get(base + "/stats")
	if err != nil {
		slog.Error("Failed to reach the running service", "url", base, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var stats map[string]ads.StatsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		slog.Error("Failed to decode stats", "error", err)
		os.Exit(1)
	}

	accounts := make([]string, 0, len(stats))
	for id := range stats {
		accounts = append(accounts, id)
	}
	sort.Strings(accounts)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ACCOUNT\tREQUESTS\tERRORS\tRETRIES\tRATE")
	for _, id := range accounts {
		s := stats[id]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f/s\n", id, s.RequestCount, s.ErrorCount, s.RetryCount, s.RequestRate)
	}
	_ = w.Flush()

	if resetStats {
		resetResp, err := http.Post(base+"/stats/reset", "application/json", nil)
		if err != nil {
			slog.Error("Failed to reset stats", "error", err)
			os.Exit(1)
		}
		_ = resetResp.Body.Close()
		fmt.Println("Counters reset.")
	}
}
