package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent router builds",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of builds")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output builds as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if buildService == nil {
		return errors.New("build service not configured")
	}

	reports, err := buildService.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if historyJSON {
		return printJSON(cmd, reports)
	}
	if len(reports) == 0 {
		cmd.Println("No builds recorded.")
		return nil
	}
	for i := range reports {
		r := &reports[i]
		cmd.Printf("%s  %s  %-24s ok=%d failed=%d skipped=%d\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.ID, r.ModelName,
			len(r.Succeeded), len(r.Failed), len(r.Skipped))
		if r.Error != "" {
			cmd.Printf("    error: %s\n", r.Error)
		}
	}
	return nil
}
