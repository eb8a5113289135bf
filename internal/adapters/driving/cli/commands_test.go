package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driving"
)

func TestSearchCmd_RoutesAndPrintsHits(t *testing.T) {
	ts := setupTestServices(t)
	ts.query.answer = &domain.Answer{
		Topic:      "cardiology",
		Similarity: 0.4321,
		Hits: []domain.ScoredDocument{
			{Document: domain.Document{ID: "cardiology_000001", Title: "Beta blockers", Abstract: "Beta blockers reduce mortality."}, Score: 0.9},
		},
	}

	out, err := run(t, "search", "heart failure drugs")

	require.NoError(t, err)
	assert.Equal(t, "heart failure drugs", ts.query.lastQuery)
	assert.Equal(t, domain.DefaultK, ts.query.lastK)
	requireContainsAll(t, out, "Topic: cardiology (similarity 0.4321)", "[1] Beta blockers (0.9000)", "cardiology_000001")
}

func TestSearchCmd_DefaultKFromSettings(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.settings.SetRetrieval(0, 3))
	ts.query.answer = &domain.Answer{Topic: "cardiology"}

	out, err := run(t, "search", "q")

	require.NoError(t, err)
	assert.Equal(t, 3, ts.query.lastK)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_TopicSkipsRouting(t *testing.T) {
	ts := setupTestServices(t)
	ts.query.hits = []domain.ScoredDocument{
		{Document: domain.Document{ID: "neurology_000003", Title: "Stroke"}, Score: 0.5},
	}

	out, err := run(t, "search", "--topic", "neurology", "-k", "2", "stroke")

	require.NoError(t, err)
	assert.Equal(t, "neurology", ts.query.lastTopic)
	assert.Equal(t, 2, ts.query.lastK)
	assert.Contains(t, out, "Topic: neurology\n")
	assert.NotContains(t, out, "similarity")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.query.answer = &domain.Answer{Topic: "cardiology", Similarity: 0.5}

	out, err := run(t, "search", "--json", "q")

	require.NoError(t, err)
	var got domain.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "cardiology", got.Topic)
}

func TestSearchCmd_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.query.err = domain.ErrInvalidParameter

	_, err := run(t, "search", "q")

	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestSearchCmd_QueryServiceUnavailable(t *testing.T) {
	setupTestServices(t)
	SetServices(&Services{
		Query: func(context.Context) (driving.QueryService, error) {
			return nil, domain.ErrSourceNotFound
		},
	})

	_, err := run(t, "search", "q")

	require.ErrorIs(t, err, domain.ErrSourceNotFound)
}

func TestRouteCmd_DefaultTopN(t *testing.T) {
	ts := setupTestServices(t)
	ts.query.routes = []domain.RouteResult{
		{Topic: "cardiology", Similarity: 0.7, RepresentativeTitle: "Heart failure outcomes"},
		{Topic: "neurology", Similarity: 0.1},
	}

	out, err := run(t, "route", "chest pain")

	require.NoError(t, err)
	// Two topics cap the default of three.
	assert.Equal(t, 2, ts.query.lastN)
	requireContainsAll(t, out, "1. cardiology", "0.7000", "e.g. Heart failure outcomes", "2. neurology")
}

func TestRouteCmd_ExplicitTopN(t *testing.T) {
	ts := setupTestServices(t)

	_, err := run(t, "route", "-n", "1", "q")

	require.NoError(t, err)
	assert.Equal(t, 1, ts.query.lastN)
}

func TestTopicsCmd(t *testing.T) {
	setupTestServices(t)

	out, err := run(t, "topics")

	require.NoError(t, err)
	requireContainsAll(t, out, "Model: hashing-v1", "Topics: 2", "cardiology", "representative: Stroke thrombolysis")
}

func TestTopicsCmd_JSON(t *testing.T) {
	setupTestServices(t)

	out, err := run(t, "topics", "--json")

	require.NoError(t, err)
	var got []domain.TopicSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, sampleTopics(), got)
}

func TestBuildCmd_UsesSettings(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.settings.SetBuild("/data/corpus", 50, 7))

	out, err := run(t, "build")

	require.NoError(t, err)
	assert.Equal(t, domain.BuildOptions{
		CorpusDir:        "/data/corpus",
		MaxDocsPerTopic:  50,
		Seed:             7,
		MaxAbstractChars: domain.DefaultBuildMaxAbstractChars,
	}, ts.build.lastOpts)
	requireContainsAll(t, out,
		"succeeded: 1  failed: 1  skipped: 1",
		"+ cardiology: 300/500 documents",
		"! oncology: malformed source",
		"- empty_topic: no usable documents")
}

func TestBuildCmd_FlagsOverrideSettings(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.settings.SetBuild("/data/corpus", 50, 7))

	_, err := run(t, "build", "--corpus", "/other", "--max-docs", "10", "--seed", "0")

	require.NoError(t, err)
	assert.Equal(t, "/other", ts.build.lastOpts.CorpusDir)
	assert.Equal(t, 10, ts.build.lastOpts.MaxDocsPerTopic)
	assert.Equal(t, uint64(0), ts.build.lastOpts.Seed)
}

func TestBuildCmd_RequiresCorpus(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "build")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no corpus directory")
}

func TestBuildCmd_RejectsZeroMaxDocs(t *testing.T) {
	setupTestServices(t)

	_, err := run(t, "build", "--corpus", "/c", "--max-docs", "0")

	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestBuildCmd_Error(t *testing.T) {
	ts := setupTestServices(t)
	ts.build.err = domain.ErrNoTopicsBuilt

	_, err := run(t, "build", "--corpus", "/c")

	require.ErrorIs(t, err, domain.ErrNoTopicsBuilt)
}

func TestHistoryCmd(t *testing.T) {
	ts := setupTestServices(t)
	ts.build.history = []domain.BuildReport{*sampleReport()}

	out, err := run(t, "history", "-n", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, ts.build.lastN)
	requireContainsAll(t, out, "build-1", "hashing-v1", "ok=1 failed=1 skipped=1")
}

func TestHistoryCmd_RunError(t *testing.T) {
	ts := setupTestServices(t)
	failed := *sampleReport()
	failed.Error = "save router artifact: disk full"
	ts.build.history = []domain.BuildReport{failed}

	out, err := run(t, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "error: save router artifact: disk full")
}

func TestHistoryCmd_Empty(t *testing.T) {
	ts := setupTestServices(t)

	out, err := run(t, "history")

	require.NoError(t, err)
	assert.Equal(t, 10, ts.build.lastN)
	assert.Contains(t, out, "No builds recorded.")
}

func TestSetup_BootstrapOnce(t *testing.T) {
	ts := setupTestServices(t)
	SetServices(nil)

	calls := 0
	var gotOpts Options
	SetBootstrap(func(_ context.Context, opts Options) (*Services, error) {
		calls++
		gotOpts = opts
		return &Services{Settings: ts.settings, Build: ts.build}, nil
	})
	t.Cleanup(func() { SetBootstrap(nil) })

	_, err := run(t, "--config-dir", "/cfg", "--artifact-dir", "/art", "history")

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, Options{ConfigDir: "/cfg", ArtifactDir: "/art"}, gotOpts)
}

func TestSetup_BootstrapError(t *testing.T) {
	setupTestServices(t)
	SetServices(nil)
	boom := errors.New("boom")
	SetBootstrap(func(context.Context, Options) (*Services, error) { return nil, boom })
	t.Cleanup(func() { SetBootstrap(nil) })

	_, err := run(t, "history")

	require.ErrorIs(t, err, boom)
}

func TestTeardown_ClosesServices(t *testing.T) {
	ts := setupTestServices(t)
	closed := 0
	SetServices(&Services{
		Settings: ts.settings,
		Build:    ts.build,
		Close: func() error {
			closed++
			return nil
		},
	})

	_, err := run(t, "history")

	require.NoError(t, err)
	assert.Equal(t, 1, closed)
}

func TestGetQueryService_LoadsOnce(t *testing.T) {
	q := &mockQueryService{}
	loads := 0
	SetServices(&Services{Query: func(context.Context) (driving.QueryService, error) {
		loads++
		return q, nil
	}})
	t.Cleanup(func() { SetServices(nil) })

	for range 3 {
		got, err := getQueryService(context.Background())
		require.NoError(t, err)
		assert.Same(t, q, got)
	}
	assert.Equal(t, 1, loads)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet("  a \n b "))
	long := strings.Repeat("x", snippetChars+10)
	assert.Equal(t, strings.Repeat("x", snippetChars)+"...", snippet(long))
}
