package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not available for a provider.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider, format or policy name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the language model could not be reached.
	// Returned once the retry budget is exhausted.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding backend could not be created or reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrModelNotFound indicates the requested model is not installed on the LLM server.
	ErrModelNotFound = errors.New("model not found")

	// Extraction Errors.

	// ErrMalformedResponse indicates the model output could not be parsed as JSON.
	// Recoverable: the chunk yields zero items.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrValidation indicates a value violates the item schema.
	ErrValidation = errors.New("validation failed")

	// Analysis Errors.

	// ErrNoParser indicates no parser handles the file extension.
	ErrNoParser = errors.New("no parser")

	// ErrAnalysisInProgress indicates another process holds the writer lock.
	ErrAnalysisInProgress = errors.New("analysis in progress")
)
