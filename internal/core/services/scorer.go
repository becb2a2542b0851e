package services

import (
	"math"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Score adjustments that are not configurable.
const (
	highLabelBonus   = 0.3
	mediumLabelBonus = 0.1
	bugBonus         = 0.15
	securityBonus    = 0.2
	mentionBonus     = 0.1
	maxMentionBonus  = 3

	highThreshold   = 0.75
	mediumThreshold = 0.45
)

var defaultSecurityKeywords = []string{"security", "vulnerability", "exploit", "injection", "xss"}

// PriorityScorer computes a deterministic priority from an item's text,
// type and model-assigned label. The label bonus always comes from the
// extraction-time label, never from a previously scored bucket.
type PriorityScorer struct {
	cfg domain.PriorityScoringConfig
}

// NewPriorityScorer creates a scorer. Missing security keywords fall back
// to the built-in list.
func NewPriorityScorer(cfg domain.PriorityScoringConfig) *PriorityScorer {
	if len(cfg.SecurityKeywords) == 0 {
		cfg.SecurityKeywords = defaultSecurityKeywords
	}
	return &PriorityScorer{cfg: cfg}
}

// Score returns the priority score in [0,1], rounded to two decimals.
// mentionCount is how many times the item was seen; values below 2 add nothing.
func (s *PriorityScorer) Score(item domain.Item, mentionCount int) float64 {
	text := strings.ToLower(item.Description + " " + item.SourceContext)
	score := s.cfg.BaseScore

	if containsAny(text, s.cfg.UrgencyKeywords) {
		score += s.cfg.UrgencyBonus
	}
	if containsAny(text, s.cfg.ImpactKeywords) {
		score += s.cfg.ImpactBonus
	}

	switch item.ModelPriority() {
	case domain.PriorityHigh:
		score += highLabelBonus
	case domain.PriorityMedium:
		score += mediumLabelBonus
	}

	if item.Type == domain.ItemTypeBug {
		score += bugBonus
	}
	if containsAny(text, s.cfg.SecurityKeywords) {
		score += securityBonus
	}
	if mentionCount > 1 {
		score += mentionBonus * float64(min(mentionCount-1, maxMentionBonus))
	}

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*100) / 100
}

// Label buckets a score into high, medium or low.
func Label(score float64) domain.Priority {
	switch {
	case score >= highThreshold:
		return domain.PriorityHigh
	case score >= mediumThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// Recalculate returns the label and score for item.
func (s *PriorityScorer) Recalculate(item domain.Item, mentionCount int) (domain.Priority, float64) {
	score := s.Score(item, mentionCount)
	return Label(score), score
}

// Apply rescores item in place as a single mention.
func (s *PriorityScorer) Apply(item *domain.Item) {
	item.Priority, item.PriorityScore = s.Recalculate(*item, 1)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
