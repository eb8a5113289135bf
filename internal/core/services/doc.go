// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval pipeline is assembled from four pieces:
//
//   - Encoder: batches, caches and normalises embeddings
//   - BuildService: computes topic centroids offline and saves the router artifact
//   - TopicRouter: ranks topics against a query vector
//   - IndexCache: builds each topic's retrieval index at most once per process
//
// QueryService composes them into the end-to-end Answer operation.
//
// Services are pure Go with no CGO dependencies.
package services
