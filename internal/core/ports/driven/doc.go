// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Turns text into vectors (hashing, Ollama, OpenAI)
//   - DocumentSource: Loads a topic's documents from its JSON file
//   - ArtifactStore: Reads and writes the router artifact
//   - VectorIndexFactory: Creates exact inner-product indexes
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingCache: Persists raw embeddings between runs. Without it every run re-embeds.
//   - BuildHistory: Records router build reports. Without it `history` is empty.
//   - EmbeddingValidator: Pings a configured provider before it is saved.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
