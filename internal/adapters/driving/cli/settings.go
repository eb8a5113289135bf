package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// stdin is where interactive prompts read from.
var stdin io.Reader = os.Stdin

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, build defaults and retrieval options.

Every key can also be overridden with a MEDROUTE_* environment variable,
for example MEDROUTE_EMBEDDING_API_KEY.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for both building and querying.

Without --provider the command runs interactively. The router must be rebuilt
after changing the provider or model.`,
	RunE: runSettingsEmbedding,
}

var settingsBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Configure build defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsBuild,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Configure retrieval defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsRetrieval,
}

var (
	embedProvider  string
	embedModel     string
	embedPromptKey bool

	settingsCorpus  string
	settingsMaxDocs int
	settingsSeed    uint64

	settingsMaxChars int
	settingsDefaultK int
)

func init() {
	settingsEmbeddingCmd.Flags().StringVar(&embedProvider, "provider", "", "provider: hashing, ollama or openai")
	settingsEmbeddingCmd.Flags().StringVar(&embedModel, "model", "", "model name (default depends on provider)")
	settingsEmbeddingCmd.Flags().BoolVar(&embedPromptKey, "prompt-key", false, "prompt for an API key")

	settingsBuildCmd.Flags().StringVar(&settingsCorpus, "corpus", "", "directory of topic JSON files")
	settingsBuildCmd.Flags().IntVar(&settingsMaxDocs, "max-docs", 0, "documents sampled per topic")
	settingsBuildCmd.Flags().Uint64Var(&settingsSeed, "seed", 0, "sampling seed")

	settingsRetrievalCmd.Flags().IntVar(&settingsMaxChars, "max-chars", 0, "abstract characters embedded per document")
	settingsRetrievalCmd.Flags().IntVar(&settingsDefaultK, "default-k", 0, "abstracts returned when k is not given")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsBuildCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Printf("  Batch size: %d\n", settings.Embedding.BatchSize)
	cmd.Printf("  Workers: %d\n", settings.Embedding.MaxWorkers)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Build]")
	corpus := settings.Build.CorpusDir
	if corpus == "" {
		corpus = "(not set)"
	}
	cmd.Printf("  Corpus: %s\n", corpus)
	cmd.Printf("  Max docs per topic: %d\n", settings.Build.MaxDocsPerTopic)
	cmd.Printf("  Seed: %d\n", settings.Build.Seed)
	cmd.Printf("  Max abstract chars: %d\n", settings.Build.MaxAbstractChars)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Max abstract chars: %d\n", settings.Retrieval.MaxAbstractChars)
	cmd.Printf("  Default k: %d\n", settings.Retrieval.DefaultK)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Router: %s\n", settings.Router.ArtifactDir)
	if settings.Cache.Enabled {
		cmd.Printf("  Cache: %s\n", settings.Cache.Dir)
	} else {
		cmd.Printf("  Cache: disabled\n")
	}
	cmd.Printf("  Server: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'medroute settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(stdin)
	if embedProvider == "" {
		return configureEmbeddingProvider(cmd, reader)
	}

	provider := domain.AIProvider(embedProvider)
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidParameter, embedProvider)
	}
	var apiKey string
	if embedPromptKey {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
	}
	return applyEmbeddingProvider(cmd, provider, embedModel, apiKey)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	return applyEmbeddingProvider(cmd, selectedProvider, model, apiKey)
}

func applyEmbeddingProvider(cmd *cobra.Command, provider domain.AIProvider, model, apiKey string) error {
	if err := settingsService.SetEmbeddingProvider(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(cmd.Context()); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), settings.Embedding.Model)
	cmd.Println("Rebuild the router with 'medroute build' before querying.")
	return nil
}

func runSettingsBuild(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetBuild(settingsCorpus, settingsMaxDocs, settingsSeed); err != nil {
		return fmt.Errorf("failed to update build settings: %w", err)
	}
	s, err := settingsService.Get()
	if err != nil {
		return err
	}
	cmd.Printf("Build settings: corpus=%s max_docs=%d seed=%d\n",
		s.Build.CorpusDir, s.Build.MaxDocsPerTopic, s.Build.Seed)
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetRetrieval(settingsMaxChars, settingsDefaultK); err != nil {
		return fmt.Errorf("failed to update retrieval settings: %w", err)
	}
	s, err := settingsService.Get()
	if err != nil {
		return err
	}
	cmd.Printf("Retrieval settings: max_chars=%d default_k=%d\n",
		s.Retrieval.MaxAbstractChars, s.Retrieval.DefaultK)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(reader *bufio.Reader) string {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
