package domain

import "time"

// AnalysisResult summarises one analysis batch.
type AnalysisResult struct {
	SourcesProcessed  int            `json:"sources_processed"`
	ItemsExtracted    int            `json:"items_extracted"`
	ItemsDeduplicated int            `json:"items_deduplicated"`
	HighPriority      int            `json:"high_priority"`
	MediumPriority    int            `json:"medium_priority"`
	LowPriority       int            `json:"low_priority"`
	ByType            map[string]int `json:"by_type"`

	// Errors holds one message per failed file. A failed file never aborts the batch.
	Errors []string `json:"errors"`

	Duration time.Duration `json:"-"`
}

// DurationSeconds returns the run time in seconds.
func (r *AnalysisResult) DurationSeconds() float64 {
	return r.Duration.Seconds()
}

// Stats is the aggregate view of the store.
type Stats struct {
	TotalItems         int            `json:"total_items"`
	ByType             map[string]int `json:"by_type"`
	ByPriority         map[string]int `json:"by_priority"`
	ByStatus           map[string]int `json:"by_status"`
	TotalSources       int            `json:"total_sources"`
	TotalRelationships int            `json:"total_relationships"`
}

// ItemFilter narrows an item query. Zero values match everything.
type ItemFilter struct {
	Type       ItemType
	Priority   Priority
	Status     Status
	SourceFile string

	// Limit caps the result size. Zero means no limit.
	Limit int

	// ExcludeDuplicates drops items flagged as duplicates.
	ExcludeDuplicates bool
}

// DuplicateGroup is a canonical item and the items judged to duplicate it.
// Similarities is parallel to Duplicates.
type DuplicateGroup struct {
	Primary      Item
	Duplicates   []Item
	Similarities []float64
}

// Size returns the number of items in the group, including the primary.
func (g DuplicateGroup) Size() int {
	return 1 + len(g.Duplicates)
}

// KeepPolicy decides which member of a duplicate group is canonical.
type KeepPolicy string

// Available keep policies.
const (
	KeepHighestConfidence KeepPolicy = "highest_confidence"
	KeepFirst             KeepPolicy = "first"
	KeepNewest            KeepPolicy = "newest"
)

// IsValid returns true if the policy is recognised.
func (p KeepPolicy) IsValid() bool {
	switch p {
	case KeepHighestConfidence, KeepFirst, KeepNewest:
		return true
	default:
		return false
	}
}

// SimilarPair is two items judged alike by a similarity utility.
type SimilarPair struct {
	First      Item
	Second     Item
	Similarity float64
}
