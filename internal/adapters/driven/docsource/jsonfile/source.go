// Package jsonfile loads topic documents from JSON files on disk.
//
// Each topic is one file holding a JSON array of objects with optional
// "topic", "title" and "abstract" string fields. The file stem names the topic.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
	"github.com/custodia-labs/medroute/internal/logger"
)

// Ensure DocumentSource implements the interface.
var _ driven.DocumentSource = (*DocumentSource)(nil)

// Extension is the file extension of topic sources.
const Extension = ".json"

// DocumentSource reads topic files from the local filesystem.
type DocumentSource struct{}

// NewDocumentSource creates a file-backed document source.
func NewDocumentSource() *DocumentSource {
	return &DocumentSource{}
}

// Load decodes the array in source one record at a time.
func (s *DocumentSource) Load(ctx context.Context, source string) ([]domain.Document, error) {
	defer logger.Timed(fmt.Sprintf("loaded %s", source))()

	f, err := os.Open(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", source, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	defer f.Close()

	docs, err := decode(ctx, f, domain.TopicName(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return docs, nil
}

func decode(ctx context.Context, r io.Reader, stem string) ([]domain.Document, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedSource, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrMalformedSource)
	}

	docs := []domain.Document{}
	for pos := 0; dec.More(); pos++ {
		if pos%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", domain.ErrMalformedSource, pos, err)
		}
		trimmed := strings.TrimSpace(string(raw))
		if !strings.HasPrefix(trimmed, "{") {
			return nil, fmt.Errorf("%w: record %d is not an object", domain.ErrMalformedSource, pos)
		}

		var rec domain.RawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", domain.ErrMalformedSource, pos, err)
		}
		if doc, keep := domain.NewDocument(stem, pos, rec); keep {
			docs = append(docs, doc)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedSource, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after array", domain.ErrMalformedSource)
	}
	return docs, nil
}

// List returns the *.json files directly inside dir, sorted by name.
func (s *DocumentSource) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("corpus directory %s: %w", dir, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			continue
		}
		sources = append(sources, filepath.Join(dir, e.Name()))
	}
	sort.Strings(sources)
	return sources, nil
}
