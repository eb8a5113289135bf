// Package cli provides the medroute command-line interface built on cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/medroute/internal/core/ports/driving"
	"github.com/custodia-labs/medroute/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Global flags.
var (
	verbose     bool
	configDir   string
	artifactDir string
	envFile     string
)

// Options are the global flag values handed to the bootstrap function.
type Options struct {
	// ConfigDir overrides the default ~/.medroute directory.
	ConfigDir string

	// ArtifactDir overrides router.artifact_dir.
	ArtifactDir string
}

// Services are the driving ports the commands run against.
type Services struct {
	Settings driving.SettingsService
	Build    driving.BuildService

	// Query loads the query service on first use. Routing needs a built
	// artifact, so commands such as build and settings never call it.
	Query func(ctx context.Context) (driving.QueryService, error)

	// Close releases resources. Optional.
	Close func() error
}

// Bootstrap constructs services from the global flags.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

// Service state set by SetServices.
var (
	bootstrap       Bootstrap
	settingsService driving.SettingsService
	buildService    driving.BuildService
	queryLoader     func(ctx context.Context) (driving.QueryService, error)
	queryService    driving.QueryService
	closeServices   func() error
)

var rootCmd = &cobra.Command{
	Use:   "medroute",
	Short: "Route medical questions to literature topics",
	Long: `medroute embeds a corpus of topic-grouped medical abstracts, builds one
centroid per topic, and answers free-text questions by routing them to the
closest topic and retrieving its most relevant abstracts.

Build the router once, then query it from the CLI, the HTTP API or MCP.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.medroute)")
	rootCmd.PersistentFlags().StringVar(&artifactDir, "artifact-dir", "", "router artifact directory (overrides router.artifact_dir)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that constructs services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs services directly, bypassing the bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	buildService = s.Build
	queryLoader = s.Query
	queryService = nil
	closeServices = s.Close
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if bootstrap == nil || settingsService != nil {
		return nil
	}
	svcs, err := bootstrap(cmd.Context(), Options{ConfigDir: configDir, ArtifactDir: artifactDir})
	if err != nil {
		return err
	}
	SetServices(svcs)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

// getQueryService loads the query service once per process.
func getQueryService(ctx context.Context) (driving.QueryService, error) {
	if queryService != nil {
		return queryService, nil
	}
	if queryLoader == nil {
		return nil, errors.New("query service not configured")
	}
	q, err := queryLoader(ctx)
	if err != nil {
		return nil, err
	}
	queryService = q
	return q, nil
}
