package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// snippetChars is how much of an abstract the table output shows.
const snippetChars = 160

var (
	searchK     int
	searchTopic string
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Answer a question from the literature",
	Long: `Routes the question to its closest topic and returns the most similar
abstracts from that topic.

Use --topic to skip routing and search a named topic directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", 0, "number of abstracts to return (default retrieval.default_k)")
	searchCmd.Flags().StringVar(&searchTopic, "topic", "", "search this topic instead of routing")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := cmd.Context()

	k := searchK
	if k == 0 {
		k = defaultK()
	}

	qs, err := getQueryService(ctx)
	if err != nil {
		return err
	}

	var answer *domain.Answer
	if searchTopic != "" {
		hits, err := qs.SearchTopic(ctx, searchTopic, query, k)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		answer = &domain.Answer{Topic: searchTopic, Hits: hits}
	} else {
		answer, err = qs.Answer(ctx, query, k)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}

	if searchJSON {
		return printJSON(cmd, answer)
	}
	printAnswer(cmd, answer, searchTopic == "")
	return nil
}

func defaultK() int {
	if settingsService != nil {
		if s, err := settingsService.Get(); err == nil && s.Retrieval.DefaultK > 0 {
			return s.Retrieval.DefaultK
		}
	}
	return domain.DefaultK
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer, routed bool) {
	if routed {
		cmd.Printf("Topic: %s (similarity %.4f)\n", answer.Topic, answer.Similarity)
	} else {
		cmd.Printf("Topic: %s\n", answer.Topic)
	}
	cmd.Println()

	if len(answer.Hits) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i := range answer.Hits {
		hit := &answer.Hits[i]
		title := hit.Title
		if title == "" {
			title = hit.ID
		}
		cmd.Printf("[%d] %s (%.4f)\n", i+1, title, hit.Score)
		cmd.Printf("    %s\n", hit.ID)
		if snippet := snippet(hit.Abstract); snippet != "" {
			cmd.Printf("    %s\n", snippet)
		}
		cmd.Println()
	}
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if len(r) <= snippetChars {
		return text
	}
	return string(r[:snippetChars]) + "..."
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
