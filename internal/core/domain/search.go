package domain

import (
	"fmt"
	"strings"
)

// SearchOptions configures a retrieval request.
type SearchOptions struct {
	// K is the maximum number of hits.
	K int

	// Topic restricts the search to a named topic and skips routing.
	Topic string
}

// ValidateQuery rejects blank queries.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: query is empty", ErrInvalidParameter)
	}
	return nil
}

// ValidateK rejects hit counts below one.
// Counts above a topic's size are valid and return every document.
func ValidateK(k int) error {
	if k < 1 {
		return fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidParameter, k)
	}
	return nil
}

// ValidateTopN rejects a route depth outside [1, numTopics].
func ValidateTopN(topN, numTopics int) error {
	if topN < 1 || topN > numTopics {
		return fmt.Errorf("%w: top_n must be in [1, %d], got %d", ErrInvalidParameter, numTopics, topN)
	}
	return nil
}
