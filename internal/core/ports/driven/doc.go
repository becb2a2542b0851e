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
//   - LLMService: Completions used for extraction (Ollama or OpenAI-compatible)
//   - Store: Item, source, relationship, embedding and run persistence
//   - SourceParser: Turns files and repositories into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Without it, deduplication falls back to fuzzy matching.
//   - PromptStore: Without it, the built-in prompts are used.
//   - ChunkProcessor: Without one, chunks reach the model unsplit.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or parser package
package driven
