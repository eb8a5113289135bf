package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// defaultTopN is how many topics route shows when -n is not given.
const defaultTopN = 3

var (
	routeTopN int
	routeJSON bool
)

var routeCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Rank topics for a question",
	Long:  `Scores the question against every topic centroid and prints the closest topics.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRoute,
}

func init() {
	routeCmd.Flags().IntVarP(&routeTopN, "top", "n", 0, "number of topics to show (default 3)")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	qs, err := getQueryService(ctx)
	if err != nil {
		return err
	}

	n := routeTopN
	if n == 0 {
		n = min(defaultTopN, len(qs.Topics()))
	}

	results, err := qs.Route(ctx, args[0], n)
	if err != nil {
		return fmt.Errorf("routing failed: %w", err)
	}

	if routeJSON {
		return printJSON(cmd, results)
	}
	for i, r := range results {
		cmd.Printf("%d. %-40s %.4f\n", i+1, r.Topic, r.Similarity)
		if r.RepresentativeTitle != "" {
			cmd.Printf("   e.g. %s\n", r.RepresentativeTitle)
		}
	}
	return nil
}
