package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Ensure DocumentSource implements the interface.
var _ driven.DocumentSource = (*DocumentSource)(nil)

// DocumentSource is an in-memory implementation of driven.DocumentSource.
// Sources are keyed by path; a source "dir/topic.json" is listed under "dir".
type DocumentSource struct {
	mu      sync.RWMutex
	sources map[string][]domain.RawRecord
	errs    map[string]error
	loads   map[string]int
}

// NewDocumentSource creates an empty in-memory document source.
func NewDocumentSource() *DocumentSource {
	return &DocumentSource{
		sources: make(map[string][]domain.RawRecord),
		errs:    make(map[string]error),
		loads:   make(map[string]int),
	}
}

// Put stores raw records under a source path.
func (s *DocumentSource) Put(source string, records ...domain.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[source] = records
	delete(s.errs, source)
}

// Fail makes Load return err for the source. The source is still listed.
func (s *DocumentSource) Fail(source string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[source] = err
	if _, ok := s.sources[source]; !ok {
		s.sources[source] = nil
	}
}

// Loads returns how many times the source was loaded.
func (s *DocumentSource) Loads(source string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads[source]
}

// Load returns the documents of a source, applying the same id and
// filtering rules as file-backed sources.
func (s *DocumentSource) Load(_ context.Context, source string) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[source]++

	if err := s.errs[source]; err != nil {
		return nil, err
	}
	records, ok := s.sources[source]
	if !ok {
		return nil, fmt.Errorf("%s: %w", source, domain.ErrSourceNotFound)
	}

	stem := domain.TopicName(source)
	docs := make([]domain.Document, 0, len(records))
	for i, rec := range records {
		if doc, keep := domain.NewDocument(stem, i, rec); keep {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// List returns the sources under dir, sorted by name.
func (s *DocumentSource) List(_ context.Context, dir string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	out := []string{}
	for src := range s.sources {
		if strings.HasPrefix(src, prefix) && !strings.Contains(src[len(prefix):], "/") {
			out = append(out, src)
		}
	}
	sort.Strings(out)
	return out, nil
}
