// Package domain defines the core business entities for the conversation analyzer.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Item: An extracted action item (TODO, BUG, FEATURE, PROJECT)
//   - Chunk: A unit of source text with provenance, ready for extraction
//   - Source: The per-file processing ledger
//   - Relationship: A link between two items
//   - ExtractedItem: The validated shape of a single model response entry
//   - Config: Typed application configuration with defaults
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
