package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

var (
	buildCorpus  string
	buildMaxDocs int
	buildSeed    uint64
	buildJSON    bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the topic router",
	Long: `Embeds every topic file in the corpus directory, computes one centroid per
topic and writes the router artifact.

A topic file that is missing or malformed fails that topic only; the rest of
the router is still written. Flags override the build.* settings for this run.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildCorpus, "corpus", "", "directory of topic JSON files (default build.corpus_dir)")
	buildCmd.Flags().IntVar(&buildMaxDocs, "max-docs", 0, "documents sampled per topic (default build.max_docs_per_topic)")
	buildCmd.Flags().Uint64Var(&buildSeed, "seed", 0, "sampling seed (default build.seed)")
	buildCmd.Flags().StringVar(&artifactDir, "out", "", "router artifact directory (same as --artifact-dir)")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "output the build report as JSON")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if buildService == nil {
		return errors.New("build service not configured")
	}

	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}
	if opts.CorpusDir == "" {
		return errors.New("no corpus directory: pass --corpus or run 'medroute settings build'")
	}

	report, err := buildService.Build(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if buildJSON {
		return printJSON(cmd, report)
	}
	printReport(cmd, report)
	return nil
}

func buildOptions(cmd *cobra.Command) (domain.BuildOptions, error) {
	defaults := domain.DefaultAppSettings().Build
	if settingsService != nil {
		s, err := settingsService.Get()
		if err != nil {
			return domain.BuildOptions{}, fmt.Errorf("loading settings: %w", err)
		}
		defaults = s.Build
	}

	opts := domain.BuildOptions{
		CorpusDir:        defaults.CorpusDir,
		MaxDocsPerTopic:  defaults.MaxDocsPerTopic,
		Seed:             defaults.Seed,
		MaxAbstractChars: defaults.MaxAbstractChars,
	}
	if cmd.Flags().Changed("corpus") {
		opts.CorpusDir = buildCorpus
	}
	if cmd.Flags().Changed("max-docs") {
		if buildMaxDocs < 1 {
			return domain.BuildOptions{}, fmt.Errorf("%w: --max-docs must be >= 1", domain.ErrInvalidParameter)
		}
		opts.MaxDocsPerTopic = buildMaxDocs
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = buildSeed
	}
	return opts, nil
}

func printReport(cmd *cobra.Command, r *domain.BuildReport) {
	cmd.Printf("Build %s (%s, model %s)\n", r.ID, r.Duration().Round(time.Millisecond), r.ModelName)
	cmd.Printf("  succeeded: %d  failed: %d  skipped: %d\n", len(r.Succeeded), len(r.Failed), len(r.Skipped))

	for _, t := range r.Succeeded {
		cmd.Printf("  + %s: %d/%d documents\n", t.Topic, t.Sampled, t.Documents)
	}
	for _, f := range r.Failed {
		cmd.Printf("  ! %s: %s\n", f.Topic, f.Reason)
	}
	for _, s := range r.Skipped {
		cmd.Printf("  - %s: no usable documents\n", s)
	}
}
