package cli

import (
	"github.com/spf13/cobra"
)

var topicsJSON bool

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List routable topics",
	Args:  cobra.NoArgs,
	RunE:  runTopics,
}

func init() {
	topicsCmd.Flags().BoolVar(&topicsJSON, "json", false, "output topics as JSON")
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, _ []string) error {
	qs, err := getQueryService(cmd.Context())
	if err != nil {
		return err
	}

	topics := qs.Topics()
	if topicsJSON {
		return printJSON(cmd, topics)
	}

	cmd.Printf("Model: %s\n", qs.ModelName())
	cmd.Printf("Topics: %d\n\n", len(topics))
	for _, t := range topics {
		cmd.Printf("  %s\n", t.Name)
		cmd.Printf("    file: %s\n", t.File)
		cmd.Printf("    representative: %s\n", t.RepresentativeTitle)
	}
	return nil
}
