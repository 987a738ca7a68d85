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
//   - DocumentStore: Document, chunk and status persistence. The
//     pending->processing claim is a conditional update here, so
//     single-flight holds across process instances.
//   - UsageStore: Weekly quota ledger with an atomic
//     increment-with-ceiling operation.
//   - BlobStore: Raw upload persistence.
//   - Extractor / ExtractorRegistry: Content-kind keyed text extraction.
//   - EmbeddingService: Generates vector embeddings for chunks and queries.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Text completion for answering questions. Without it,
//     the question endpoint returns retrieved chunks without a generated
//     answer.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
