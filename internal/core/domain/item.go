package domain

import (
	"sort"
	"time"
)

// ItemType classifies an extracted item.
type ItemType string

// Available item types.
const (
	// ItemTypeTODO is an explicit action item or task.
	ItemTypeTODO ItemType = "TODO"

	// ItemTypeBug is a problem, error or issue.
	ItemTypeBug ItemType = "BUG"

	// ItemTypeFeature is a feature request or enhancement idea.
	ItemTypeFeature ItemType = "FEATURE"

	// ItemTypeProject is a potential new project or major initiative.
	ItemTypeProject ItemType = "PROJECT"
)

// ItemTypes lists every item type in report order.
var ItemTypes = []ItemType{ItemTypeBug, ItemTypeTODO, ItemTypeFeature, ItemTypeProject}

// IsValid returns true if the item type is recognised.
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeTODO, ItemTypeBug, ItemTypeFeature, ItemTypeProject:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t ItemType) String() string {
	return string(t)
}

// Priority is the coarse high/medium/low label.
type Priority string

// Available priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// IsValid returns true if the priority is recognised.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// InitialScore maps the label to the provisional score assigned at extraction.
// Unknown labels map to the medium score.
func (p Priority) InitialScore() float64 {
	switch p {
	case PriorityHigh:
		return 0.8
	case PriorityLow:
		return 0.2
	default:
		return 0.5
	}
}

// String returns the string representation.
func (p Priority) String() string {
	return string(p)
}

// Status is the lifecycle state of an item.
type Status string

// Available statuses.
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDuplicate  Status = "duplicate"
)

// IsValid returns true if the status is recognised.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusDuplicate:
		return true
	default:
		return false
	}
}

// SourceType identifies what kind of input an item or source came from.
type SourceType string

// Available source types.
const (
	SourceTypeConversation SourceType = "conversation"
	SourceTypeCode         SourceType = "code"
	SourceTypeDocument     SourceType = "document"
	SourceTypeGit          SourceType = "git"
)

// IsValid returns true if the source type is recognised.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceTypeConversation, SourceTypeCode, SourceTypeDocument, SourceTypeGit:
		return true
	default:
		return false
	}
}

// Entity categories produced by the entity linker.
const (
	EntityFiles      = "files"
	EntityFunctions  = "functions"
	EntityComponents = "components"
	EntityKeywords   = "keywords"
)

// Metadata keys written by the analysis pipeline.
const (
	// MetadataRelatedTo holds the ids of linked items.
	MetadataRelatedTo = "related_to"

	// MetadataModelPriority holds the label the model assigned at extraction.
	// Priority is overwritten by the scored bucket, so rescoring reads this.
	MetadataModelPriority = "model_priority"
)

// Entities maps an entity category to the distinct values found for it.
type Entities map[string][]string

// Keys returns the categories in sorted order.
func (e Entities) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Item is an extracted action item.
type Item struct {
	// ID is assigned by the store on first persist. Zero means unsaved.
	ID int64

	// Type classifies the item.
	Type ItemType

	// Description is the normalised, whitespace-collapsed summary.
	Description string

	// Priority is the coarse label derived from PriorityScore.
	Priority Priority

	// PriorityScore is the deterministic numeric priority in [0,1].
	PriorityScore float64

	// SourceContext is the verbatim quote the item was extracted from.
	SourceContext string

	// Confidence is the model-reported certainty in [0,1].
	Confidence float64

	// SourceType, SourceFile and SourceLine record provenance.
	SourceType SourceType
	SourceFile string
	SourceLine *int

	// ExtractedAt is when the model produced the item.
	ExtractedAt time.Time

	Tags     []string
	Entities Entities
	Metadata map[string]any

	// Status is the lifecycle state. StatusDuplicate implies IsDuplicate.
	Status Status

	// IsDuplicate marks a non-canonical member of a duplicate group.
	IsDuplicate bool

	// DuplicateOf references the canonical item. Only set when IsDuplicate.
	DuplicateOf *int64

	// EmbeddingHash identifies the text the stored embedding was computed from.
	EmbeddingHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasID reports whether the item has been persisted.
func (i *Item) HasID() bool {
	return i.ID > 0
}

// ModelPriority returns the label the model assigned at extraction, falling
// back to Priority for items saved without one.
func (i *Item) ModelPriority() Priority {
	if v, ok := i.Metadata[MetadataModelPriority].(string); ok && Priority(v).IsValid() {
		return Priority(v)
	}
	return i.Priority
}

// RelatedTo returns the linked item ids recorded in metadata.
// Values decoded from JSON arrive as float64 and are converted.
func (i *Item) RelatedTo() []int64 {
	if i.Metadata == nil {
		return nil
	}
	switch v := i.Metadata[MetadataRelatedTo].(type) {
	case []int64:
		return v
	case []any:
		ids := make([]int64, 0, len(v))
		for _, raw := range v {
			switch n := raw.(type) {
			case float64:
				ids = append(ids, int64(n))
			case int64:
				ids = append(ids, n)
			case int:
				ids = append(ids, int64(n))
			}
		}
		return ids
	default:
		return nil
	}
}

// IntPtr returns a pointer to v. Convenience for optional line numbers.
func IntPtr(v int) *int {
	return &v
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
