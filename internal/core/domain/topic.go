package domain

import "fmt"

// NoTitlePlaceholder stands in for the representative title of a topic whose
// most central document has no title.
const NoTitlePlaceholder = "(no title)"

// RouterArtifact is the output of a router build: one centroid per topic with
// index-aligned metadata. It is never mutated after construction; a rebuild
// produces a new artifact that replaces the old one wholesale.
type RouterArtifact struct {
	// ModelName is the embedding model that produced the centroids.
	ModelName string `json:"model_name"`

	// Topics holds topic names in build order.
	Topics []string `json:"topics"`

	// Centroids holds one unit-norm vector per topic.
	// Persisted separately as a matrix, so it is excluded from the JSON metadata.
	Centroids [][]float32 `json:"-"`

	// RepresentativeTitles holds, per topic, the title of the document closest to its centroid.
	RepresentativeTitles []string `json:"representative_titles"`

	// TopicFiles holds, per topic, the path of the backing document source.
	TopicFiles []string `json:"topic_files"`
}

// NumTopics returns the number of topics in the artifact.
func (a *RouterArtifact) NumTopics() int {
	return len(a.Topics)
}

// Dimensions returns the centroid dimension, or 0 for an empty artifact.
func (a *RouterArtifact) Dimensions() int {
	if len(a.Centroids) == 0 {
		return 0
	}
	return len(a.Centroids[0])
}

// Append adds one topic to the artifact's parallel sequences.
func (a *RouterArtifact) Append(topic string, centroid []float32, title, file string) {
	a.Topics = append(a.Topics, topic)
	a.Centroids = append(a.Centroids, centroid)
	a.RepresentativeTitles = append(a.RepresentativeTitles, title)
	a.TopicFiles = append(a.TopicFiles, file)
}

// Validate checks that the parallel sequences are aligned and the centroid
// matrix is rectangular.
func (a *RouterArtifact) Validate() error {
	if a.ModelName == "" {
		return fmt.Errorf("%w: artifact has no model name", ErrMalformedSource)
	}
	n := len(a.Topics)
	if len(a.Centroids) != n || len(a.RepresentativeTitles) != n || len(a.TopicFiles) != n {
		return fmt.Errorf("%w: misaligned artifact (topics=%d centroids=%d titles=%d files=%d)",
			ErrMalformedSource, n, len(a.Centroids), len(a.RepresentativeTitles), len(a.TopicFiles))
	}
	dim := a.Dimensions()
	for i, c := range a.Centroids {
		if len(c) == 0 || len(c) != dim {
			return fmt.Errorf("%w: centroid %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(c), dim)
		}
	}
	return nil
}

// TopicIndex returns the position of the named topic.
func (a *RouterArtifact) TopicIndex(name string) (int, error) {
	for i, t := range a.Topics {
		if t == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("topic %q: %w", name, ErrNotFound)
}

// Summaries returns one TopicSummary per topic, in artifact order.
func (a *RouterArtifact) Summaries() []TopicSummary {
	out := make([]TopicSummary, len(a.Topics))
	for i := range a.Topics {
		out[i] = TopicSummary{
			Name:                a.Topics[i],
			RepresentativeTitle: a.RepresentativeTitles[i],
			File:                a.TopicFiles[i],
		}
	}
	return out
}

// TopicSummary describes one routable topic.
type TopicSummary struct {
	Name                string `json:"name"`
	RepresentativeTitle string `json:"representative_title"`
	File                string `json:"file"`
}

// RouteResult is one ranked topic returned by the router.
type RouteResult struct {
	// Topic is the topic name.
	Topic string `json:"topic"`

	// Similarity is the inner product of the query and the topic centroid.
	Similarity float64 `json:"similarity"`

	// RepresentativeTitle is the title of the document closest to the centroid.
	RepresentativeTitle string `json:"representative_title"`

	// File is the topic's backing document source.
	File string `json:"file"`
}
