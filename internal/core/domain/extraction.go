package domain

import "time"

// ExtractedItem is one item as returned by the model, before conversion.
type ExtractedItem struct {
	Type          ItemType `json:"type"`
	Description   string   `json:"description"`
	Priority      Priority `json:"priority"`
	SourceContext string   `json:"source_context"`
	Confidence    float64  `json:"confidence"`
}

// Limits applied to an ExtractedItem.
const (
	MinDescriptionLength   = 5
	MaxDescriptionLength   = 1000
	MaxSourceContextLength = 2000
)

// ExtractionResult is the validated shape of a single model response.
type ExtractionResult struct {
	Items []ExtractedItem `json:"items"`
}

// ItemReview is the analysis model's opinion of an extracted item.
type ItemReview struct {
	Accurate            bool    `json:"accurate"`
	WellDescribed       bool    `json:"well_described"`
	AppropriatePriority bool    `json:"appropriate_priority"`
	SuggestedConfidence float64 `json:"suggested_confidence"`
	Reason              string  `json:"reason"`
}

// RunStatus is the state of an extraction run.
type RunStatus string

// Available run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ExtractionRun is the audit record of one analysis batch.
type ExtractionRun struct {
	// ID is assigned by the store.
	ID int64

	// RunID is a uuid that also tags log lines for the run.
	RunID string

	ModelName        string
	PromptVersion    string
	SourcesProcessed int
	ItemsExtracted   int

	// Duration is set when the run finishes.
	Duration time.Duration

	Status       RunStatus
	ErrorMessage string

	// Config is a snapshot of the settings in effect.
	Config map[string]any

	StartedAt   time.Time
	CompletedAt *time.Time
}
