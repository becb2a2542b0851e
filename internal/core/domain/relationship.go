package domain

import "time"

// RelationshipType classifies a link between two items.
type RelationshipType string

// Available relationship types.
const (
	RelationshipDuplicate RelationshipType = "duplicate"
	RelationshipRelated   RelationshipType = "related"
	RelationshipBlocks    RelationshipType = "blocks"
	RelationshipBlockedBy RelationshipType = "blocked_by"
	RelationshipParent    RelationshipType = "parent"
	RelationshipChild     RelationshipType = "child"
)

// IsValid returns true if the relationship type is recognised.
func (t RelationshipType) IsValid() bool {
	switch t {
	case RelationshipDuplicate, RelationshipRelated, RelationshipBlocks,
		RelationshipBlockedBy, RelationshipParent, RelationshipChild:
		return true
	default:
		return false
	}
}

// Relationship links two items. The ordered triple
// (ItemID1, ItemID2, Type) is unique; saving it twice is a no-op.
type Relationship struct {
	ID      int64
	ItemID1 int64
	ItemID2 int64
	Type    RelationshipType

	// SimilarityScore is set for duplicate links.
	SimilarityScore *float64

	// Reason is a short human-readable explanation.
	Reason string

	CreatedAt time.Time
}

// RelatedItem is one row of a related-items lookup, seen from a given item.
type RelatedItem struct {
	ItemID          int64
	Type            RelationshipType
	SimilarityScore *float64
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
