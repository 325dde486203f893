// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Chunker: Splits cleaned document text into bounded chunks
//   - EmbeddingProvider: Turns text into vectors (simulated or real)
//   - VectorStore: Persists chunks with vectors and serves similarity search
//   - Normaliser: Extracts text from raw uploaded files
//   - ConfigStore: Application configuration
//   - MetricsRecorder: Operation and fallback counters
//   - Connector: Scans and watches a document source
//
// The broker holds one simulated and one real implementation of
// EmbeddingProvider and VectorStore. The real ones may be nil; calls
// routed to a missing real backend fall back to simulation.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
