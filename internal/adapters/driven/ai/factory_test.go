package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/medroute/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantModel   string
		wantDims    int
		wantErr     bool
		errContains string
	}{
		{
			name:        "nil settings returns error",
			settings:    nil,
			wantErr:     true,
			errContains: "required",
		},
		{
			name:      "hashing provider uses default dimensions",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing},
			wantModel: "hashing-v1",
			wantDims:  384,
		},
		{
			name:      "hashing provider honours dimensions",
			settings:  &domain.EmbeddingSettings{Provider: domain.AIProviderHashing, Dimensions: 128},
			wantModel: "hashing-v1-d128",
			wantDims:  128,
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "all-minilm",
			},
			wantModel: "all-minilm",
			wantDims:  384,
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
			wantModel: "text-embedding-3-small",
			wantDims:  1536,
		},
		{
			name: "openai without key returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				Model:    "text-embedding-3-small",
			},
			wantErr:     true,
			errContains: "API key",
		},
		{
			name:        "unknown provider returns error",
			settings:    &domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:     true,
			errContains: "unsupported embedding provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			defer svc.Close()
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateAndValidateEmbeddingService_Hashing(t *testing.T) {
	svc, err := CreateAndValidateEmbeddingService(context.Background(),
		&domain.EmbeddingSettings{Provider: domain.AIProviderHashing})

	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.NoError(t, svc.Close())
}

func TestCreateAndValidateEmbeddingService_Unconfigured(t *testing.T) {
	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
		Model:    "nomic-embed-text",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "unreachable")
}
