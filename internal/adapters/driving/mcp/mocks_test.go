package mcp

import (
	"context"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	topics []domain.TopicSummary
	routes []domain.RouteResult
	answer *domain.Answer
	hits   []domain.ScoredDocument
	err    error

	lastQuery string
	lastTopic string
	lastN     int
}

func (m *mockQueryService) Answer(_ context.Context, query string, k int) (*domain.Answer, error) {
	m.lastQuery, m.lastN = query, k
	return m.answer, m.err
}

func (m *mockQueryService) Route(_ context.Context, query string, topN int) ([]domain.RouteResult, error) {
	m.lastQuery, m.lastN = query, topN
	return m.routes, m.err
}

func (m *mockQueryService) SearchTopic(_ context.Context, topic, query string, k int) ([]domain.ScoredDocument, error) {
	m.lastTopic, m.lastQuery, m.lastN = topic, query, k
	return m.hits, m.err
}

func (m *mockQueryService) Topics() []domain.TopicSummary { return m.topics }

func (m *mockQueryService) Warm(_ context.Context) error { return m.err }

func (m *mockQueryService) ModelName() string { return "hashing-v1" }

// mockBuildService is a mock implementation of driving.BuildService.
type mockBuildService struct {
	reports []domain.BuildReport
	err     error
}

func (m *mockBuildService) Build(_ context.Context, _ domain.BuildOptions) (*domain.BuildReport, error) {
	return nil, m.err
}

func (m *mockBuildService) History(_ context.Context, _ int) ([]domain.BuildReport, error) {
	return m.reports, m.err
}

func testTopics() []domain.TopicSummary {
	return []domain.TopicSummary{
		{Name: "cardiology", RepresentativeTitle: "Statins in the elderly", File: "corpus/cardiology.json"},
		{Name: "neurology", RepresentativeTitle: "Stroke thrombolysis", File: "corpus/neurology.json"},
		{Name: "oncology", RepresentativeTitle: "(no title)", File: "corpus/oncology.json"},
		{Name: "pediatrics", RepresentativeTitle: "Asthma in children", File: "corpus/pediatrics.json"},
	}
}
