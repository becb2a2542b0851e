package domain

import "time"

// ProcessingStatus is the outcome of the last processing attempt for a source.
type ProcessingStatus string

// Available processing statuses.
const (
	ProcessingSuccess ProcessingStatus = "success"
	ProcessingFailed  ProcessingStatus = "failed"
	ProcessingPartial ProcessingStatus = "partial"
)

// IsValid returns true if the status is recognised.
func (s ProcessingStatus) IsValid() bool {
	switch s {
	case ProcessingSuccess, ProcessingFailed, ProcessingPartial:
		return true
	default:
		return false
	}
}

// Source is the per-file processing ledger.
// There is exactly one Source per FilePath; reprocessing overwrites it.
type Source struct {
	// ID is assigned by the store.
	ID int64

	// SourceType is the parser variant that handled the file.
	SourceType SourceType

	// FilePath is the unique key of the ledger row.
	FilePath string

	// FileHash is the content digest at last processing.
	// A file is only re-extracted when its current digest differs.
	FileHash string

	// ItemsCount is how many items the last run extracted.
	ItemsCount int

	LastProcessed    time.Time
	ProcessingStatus ProcessingStatus

	// ErrorMessage is set when ProcessingStatus is failed.
	ErrorMessage string

	Metadata  map[string]any
	CreatedAt time.Time
}

// Chunk is a unit of source text with provenance, ready for extraction.
// Chunks are produced by parsers and never persisted.
type Chunk struct {
	// Text is the content handed to the model.
	Text string

	SourceType SourceType
	SourceFile string

	// SourceLine is the 1-based line the text came from, when meaningful.
	SourceLine *int

	// Metadata is inherited by every item extracted from the chunk.
	Metadata map[string]any
}
