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

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Sync metrics and train the account's models",
	Run:   runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newApp(cfg)
	accountID := resolveAccount(cfg)

	report, err := app.TrainAccount(context.Background(), accountID)
	if err != nil {
		slog.Error("Training failed", "account", accountID, "error", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(report.Results)+len(report.Errors))
	for name := range report.Results {
		names = append(names, name)
	}
	for name := range report.Errors {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "MODEL\tSAMPLES\tTRAIN R2\tTEST R2\tSTATUS")
	for _, name := range names {
		if result, ok := report.Results[name]; ok {
			_, _ = fmt.Fprintf(w, "%s\t%d\t%.3f\t%.3f\tok\n", name, result.TrainedOn, result.TrainScore, result.TestScore)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", name, report.Errors[name])
	}
	_ = w.Flush()

	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
