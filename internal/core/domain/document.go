package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RawRecord is one element of a topic's backing JSON array.
// Every field is optional; missing or null fields decode as empty strings.
type RawRecord struct {
	Topic    string `json:"topic"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

// Document is a literature record loaded from a topic source.
type Document struct {
	// ID is derived from the source file stem and the record's position
	// in the source array, e.g. "cardiovascular_emergencies_000042".
	ID string `json:"id"`

	// Title is the trimmed article title.
	Title string `json:"title"`

	// Abstract is the trimmed article abstract.
	Abstract string `json:"abstract"`
}

// DocumentID builds the stable identifier for the record at position in the
// source whose file stem is stem.
func DocumentID(stem string, position int) string {
	return fmt.Sprintf("%s_%06d", stem, position)
}

// NewDocument trims the record's text fields and assigns its identifier.
// The second return value is false when both title and abstract are empty,
// in which case the record carries no retrievable signal and must be dropped.
func NewDocument(stem string, position int, rec RawRecord) (Document, bool) {
	title := strings.TrimSpace(rec.Title)
	abstract := strings.TrimSpace(rec.Abstract)
	if title == "" && abstract == "" {
		return Document{}, false
	}
	return Document{
		ID:       DocumentID(stem, position),
		Title:    title,
		Abstract: abstract,
	}, true
}

// EmbeddingText returns the text fed to the embedding model:
// the title, a blank line, and the abstract cut to maxAbstractChars characters.
// A non-positive limit keeps the whole abstract.
func (d Document) EmbeddingText(maxAbstractChars int) string {
	return strings.TrimSpace(d.Title + "\n\n" + truncateRunes(d.Abstract, maxAbstractChars))
}

// truncateRunes cuts s to at most n characters (not bytes).
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ScoredDocument is a retrieval hit.
type ScoredDocument struct {
	Document

	// Score is the inner product of the query and document embeddings.
	// With unit-norm vectors this is cosine similarity in [-1, 1].
	Score float64 `json:"score"`
}

// Answer is the result of the end-to-end query pipeline.
type Answer struct {
	// Topic is the name of the topic the query was routed to.
	Topic string `json:"topic"`

	// Similarity is the query's similarity to the routed topic's centroid.
	Similarity float64 `json:"similarity"`

	// Hits are the top documents within the routed topic, best first.
	Hits []ScoredDocument `json:"hits"`
}

// TopicName derives a topic name from its source path: the file name without extension.
func TopicName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
