package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// maxKeysPerQuery keeps IN lists well below SQLite's bound-parameter limit.
const maxKeysPerQuery = 500

// embeddingCache implements driven.EmbeddingCache.
type embeddingCache struct {
	store *Store
}

var _ driven.EmbeddingCache = (*embeddingCache)(nil)

// Get returns the cached vectors for keys. Missing keys are absent from the map.
func (c *embeddingCache) Get(ctx context.Context, model string, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	for start := 0; start < len(keys); start += maxKeysPerQuery {
		chunk := keys[start:min(start+maxKeysPerQuery, len(keys))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, model)
		for _, k := range chunk {
			args = append(args, k)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := c.store.db.QueryContext(ctx,
			`SELECT text_key, dimensions, vector FROM embeddings WHERE model = ? AND text_key IN (`+placeholders+`)`,
			args...)
		if err != nil {
			return nil, fmt.Errorf("querying embeddings: %w", err)
		}

		for rows.Next() {
			var key string
			var dims int
			var blob []byte
			if err := rows.Scan(&key, &dims, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning embedding: %w", err)
			}
			v := bytesToFloat32Slice(blob)
			if len(v) != dims {
				continue // Corrupt row; treat as a miss and let Put overwrite it.
			}
			out[key] = v
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating embeddings: %w", err)
		}
	}
	return out, nil
}

// Put stores vectors in a single transaction.
func (c *embeddingCache) Put(ctx context.Context, model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (model, text_key, dimensions, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(model, text_key) DO UPDATE SET
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for key, v := range vectors {
		if _, err := stmt.ExecContext(ctx, model, key, len(v), float32SliceToBytes(v), now); err != nil {
			return fmt.Errorf("storing embedding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing embeddings: %w", err)
	}
	return nil
}
