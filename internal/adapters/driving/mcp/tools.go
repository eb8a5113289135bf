package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

// Tool defaults, overridable with WithDefaultK and WithDefaultTopN.
const (
	defaultTopN = 3
	defaultK    = 8
)

// RouteInput is the input schema for the route_query tool.
type RouteInput struct {
	Query string `json:"query" jsonschema:"the medical question or keywords to route"`
	TopN  int    `json:"top_n,omitempty" jsonschema:"number of topics to return (default 3)"`
}

// RouteOutput is the output schema for the route_query tool.
type RouteOutput struct {
	Topics []domain.RouteResult `json:"topics"`
}

// SearchInput is the input schema for the search_literature tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the medical question to answer from the literature"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of abstracts to return (default 8)"`
	Topic string `json:"topic,omitempty" jsonschema:"search this topic directly instead of routing"`
}

// SearchOutput is the output schema for the search_literature tool.
type SearchOutput struct {
	Topic      string      `json:"topic"`
	Similarity float64     `json:"similarity,omitempty"`
	Hits       []HitOutput `json:"hits"`
	Count      int         `json:"count"`
}

// HitOutput represents a single retrieved abstract.
type HitOutput struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Abstract   string  `json:"abstract"`
	Score      float64 `json:"score"`
}

func toHits(docs []domain.ScoredDocument) []HitOutput {
	out := make([]HitOutput, len(docs))
	for i := range docs {
		out[i] = HitOutput{
			DocumentID: docs[i].ID,
			Title:      docs[i].Title,
			Abstract:   docs[i].Abstract,
			Score:      docs[i].Score,
		}
	}
	return out
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "route_query",
		Description: "Rank literature topics by similarity to a medical query",
	}, s.handleRoute)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_literature",
		Description: "Route a medical query to its best topic and return the most relevant abstracts",
	}, s.handleSearch)
}

// handleRoute handles the route_query tool invocation.
func (s *Server) handleRoute(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RouteInput,
) (*mcp.CallToolResult, RouteOutput, error) {
	topN := input.TopN
	if topN <= 0 {
		topN = min(s.defaultTopN, len(s.ports.Query.Topics()))
	}

	results, err := s.ports.Query.Route(ctx, input.Query, topN)
	if err != nil {
		return nil, RouteOutput{}, err
	}
	return nil, RouteOutput{Topics: results}, nil
}

// handleSearch handles the search_literature tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	k := input.K
	if k <= 0 {
		k = s.defaultK
	}

	if input.Topic != "" {
		hits, err := s.ports.Query.SearchTopic(ctx, input.Topic, input.Query, k)
		if err != nil {
			return nil, SearchOutput{}, err
		}
		return nil, SearchOutput{Topic: input.Topic, Hits: toHits(hits), Count: len(hits)}, nil
	}

	answer, err := s.ports.Query.Answer(ctx, input.Query, k)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{
		Topic:      answer.Topic,
		Similarity: answer.Similarity,
		Hits:       toHits(answer.Hits),
		Count:      len(answer.Hits),
	}, nil
}
