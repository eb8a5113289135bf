package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
	"github.com/custodia-labs/medroute/internal/core/services"
)

type mockQueryService struct {
	answer    *domain.Answer
	hits      []domain.ScoredDocument
	routes    []domain.RouteResult
	topics    []domain.TopicSummary
	err       error
	lastQuery string
	lastTopic string
	lastK     int
	lastN     int
	warmed    bool
}

func (m *mockQueryService) Answer(_ context.Context, query string, k int) (*domain.Answer, error) {
	m.lastQuery, m.lastK = query, k
	return m.answer, m.err
}

func (m *mockQueryService) Route(_ context.Context, query string, topN int) ([]domain.RouteResult, error) {
	m.lastQuery, m.lastN = query, topN
	return m.routes, m.err
}

func (m *mockQueryService) SearchTopic(_ context.Context, topic, query string, k int) ([]domain.ScoredDocument, error) {
	m.lastTopic, m.lastQuery, m.lastK = topic, query, k
	return m.hits, m.err
}

func (m *mockQueryService) Topics() []domain.TopicSummary { return m.topics }

func (m *mockQueryService) Warm(context.Context) error {
	m.warmed = true
	return m.err
}

func (m *mockQueryService) ModelName() string { return "hashing-v1" }

type mockBuildService struct {
	report   *domain.BuildReport
	history  []domain.BuildReport
	err      error
	lastOpts domain.BuildOptions
	lastN    int
}

func (m *mockBuildService) Build(_ context.Context, opts domain.BuildOptions) (*domain.BuildReport, error) {
	m.lastOpts = opts
	return m.report, m.err
}

func (m *mockBuildService) History(_ context.Context, limit int) ([]domain.BuildReport, error) {
	m.lastN = limit
	return m.history, m.err
}

type testServices struct {
	settings *services.SettingsService
	query    *mockQueryService
	build    *mockBuildService
}

// setupTestServices installs mocks behind the commands and restores
// global state when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		settings: services.NewSettingsService(memory.NewConfigStore(), nil, t.TempDir()),
		query:    &mockQueryService{topics: sampleTopics()},
		build:    &mockBuildService{report: sampleReport()},
	}
	SetServices(&Services{
		Settings: ts.settings,
		Build:    ts.build,
		Query: func(context.Context) (driving.QueryService, error) {
			return ts.query, nil
		},
	})
	t.Cleanup(func() {
		SetServices(nil)
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	return ts
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func sampleTopics() []domain.TopicSummary {
	return []domain.TopicSummary{
		{Name: "cardiology", RepresentativeTitle: "Heart failure outcomes", File: "cardiology.json"},
		{Name: "neurology", RepresentativeTitle: "Stroke thrombolysis", File: "neurology.json"},
	}
}

func sampleReport() *domain.BuildReport {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &domain.BuildReport{
		ID:         "build-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		ModelName:  "hashing-v1",
		Succeeded: []domain.TopicBuild{
			{Topic: "cardiology", File: "cardiology.json", Documents: 500, Sampled: 300},
		},
		Failed:  []domain.TopicFailure{{Topic: "oncology", File: "oncology.json", Reason: "malformed source"}},
		Skipped: []string{"empty_topic"},
	}
}

func requireContainsAll(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		require.Contains(t, out, w)
	}
}
