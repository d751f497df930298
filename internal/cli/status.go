package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account, mirror and model status",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newApp(cfg)
	accountID := resolveAccount(cfg)

	st, err := app.Status(context.Background(), accountID)
	if err != nil {
		slog.Error("Failed to fetch status", "account", accountID, "error", err)
		os.Exit(1)
	}

	latest := "never"
	if !st.LatestMirror.IsZero() {
		latest = st.LatestMirror.Format("2006-01-02")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ACCOUNT\tNAME\tCURRENCY\tCAMPAIGNS\tMIRRORED ROWS\tLATEST MIRROR")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
		st.Account.ID, st.Account.Name, st.Account.CurrencyCode, st.Campaigns, st.MirroredRows, latest)
	_ = w.Flush()

	models := make([]string, 0, len(st.Models))
	for name := range st.Models {
		models = append(models, name)
	}
	sort.Strings(models)

	fmt.Println()
	for _, name := range models {
		state := "not trained"
		if st.Models[name] {
			state = "trained"
		}
		fmt.Printf("model %s: %s\n", name, state)
	}
}
