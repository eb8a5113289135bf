// Package domain defines the core business entities for medroute.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A literature record (title + abstract) belonging to a topic
//   - RouterArtifact: Topic centroids and their index-aligned metadata
//   - RouteResult: A topic ranked against a query
//   - ScoredDocument: A document hit with its similarity score
//   - BuildReport: Per-topic outcome of an offline router build
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
