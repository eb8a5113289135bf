package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

func TestServer_handleRoute(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked topics", func(t *testing.T) {
		mock := &mockQueryService{
			topics: testTopics(),
			routes: []domain.RouteResult{
				{Topic: "cardiology", Similarity: 0.91, RepresentativeTitle: "Statins in the elderly"},
			},
		}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, output, err := server.handleRoute(ctx, nil, RouteInput{Query: "chest pain", TopN: 1})

		require.NoError(t, err)
		require.Len(t, output.Topics, 1)
		assert.Equal(t, "cardiology", output.Topics[0].Topic)
		assert.Equal(t, 1, mock.lastN)
		assert.Equal(t, "chest pain", mock.lastQuery)
	})

	t.Run("default top_n is 3", func(t *testing.T) {
		mock := &mockQueryService{topics: testTopics()}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, _, err = server.handleRoute(ctx, nil, RouteInput{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, 3, mock.lastN)
	})

	t.Run("default top_n is capped by topic count", func(t *testing.T) {
		mock := &mockQueryService{topics: testTopics()[:2]}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, _, err = server.handleRoute(ctx, nil, RouteInput{Query: "q"})

		require.NoError(t, err)
		assert.Equal(t, 2, mock.lastN)
	})

	t.Run("propagates errors", func(t *testing.T) {
		mock := &mockQueryService{err: domain.ErrInvalidParameter}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, _, err = server.handleRoute(ctx, nil, RouteInput{Query: ""})

		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()
	hits := []domain.ScoredDocument{
		{Document: domain.Document{ID: "cardiology_000001", Title: "Statins", Abstract: "..."}, Score: 0.8},
		{Document: domain.Document{ID: "cardiology_000007", Title: "Aspirin", Abstract: "..."}, Score: 0.7},
	}

	t.Run("routes and returns hits", func(t *testing.T) {
		mock := &mockQueryService{answer: &domain.Answer{Topic: "cardiology", Similarity: 0.9, Hits: hits}}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "statins", K: 2})

		require.NoError(t, err)
		assert.Equal(t, "cardiology", output.Topic)
		assert.Equal(t, 0.9, output.Similarity)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "cardiology_000001", output.Hits[0].DocumentID)
		assert.Equal(t, 2, mock.lastN)
	})

	t.Run("default k is 8", func(t *testing.T) {
		mock := &mockQueryService{answer: &domain.Answer{Topic: "cardiology"}}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "statins"})

		require.NoError(t, err)
		assert.Equal(t, 8, mock.lastN)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("named topic skips routing", func(t *testing.T) {
		mock := &mockQueryService{hits: hits[:1]}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "statins", Topic: "cardiology", K: 5})

		require.NoError(t, err)
		assert.Equal(t, "cardiology", mock.lastTopic)
		assert.Equal(t, "cardiology", output.Topic)
		assert.Equal(t, 1, output.Count)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mock := &mockQueryService{err: errors.New("index failed")}
		server, err := NewServer(&Ports{Query: mock})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "statins"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "index failed")
	})
}
