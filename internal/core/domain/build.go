package domain

import "time"

// BuildOptions controls an offline router build.
type BuildOptions struct {
	// CorpusDir holds one JSON document file per topic.
	CorpusDir string

	// MaxDocsPerTopic caps how many documents contribute to a centroid.
	// Topics above the cap are sampled uniformly without replacement.
	MaxDocsPerTopic int

	// Seed makes sampling reproducible.
	Seed uint64

	// MaxAbstractChars truncates abstracts before embedding.
	MaxAbstractChars int
}

// TopicBuild records a topic that produced a centroid.
type TopicBuild struct {
	Topic               string `json:"topic"`
	File                string `json:"file"`
	Documents           int    `json:"documents"`
	Sampled             int    `json:"sampled"`
	RepresentativeTitle string `json:"representative_title"`
}

// TopicFailure records a topic that could not be built.
type TopicFailure struct {
	Topic  string `json:"topic"`
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// BuildReport summarises a router build. Partial success is normal:
// a malformed or missing topic file fails that topic only.
type BuildReport struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	ModelName  string         `json:"model_name"`
	Succeeded  []TopicBuild   `json:"succeeded"`
	Failed     []TopicFailure `json:"failed"`

	// Skipped lists topics with zero usable documents.
	Skipped []string `json:"skipped"`

	// Error is set when the run as a whole failed, for example when no
	// topic was built or the artifact could not be saved.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the build took.
func (r *BuildReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasFailures reports whether any topic or the run itself failed.
func (r *BuildReport) HasFailures() bool {
	return len(r.Failed) > 0 || r.Error != ""
}
