package reporting

import (
	"encoding/json"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

type jsonReport struct {
	GeneratedAt    time.Time       `json:"generated_at"`
	TotalItems     int             `json:"total_items"`
	Items          []jsonItem      `json:"items"`
	Statistics     *domain.Stats   `json:"statistics,omitempty"`
	AnalysisResult *jsonRunSummary `json:"analysis_result,omitempty"`
}

type jsonSource struct {
	Type    domain.SourceType `json:"type"`
	File    string            `json:"file"`
	Line    *int              `json:"line"`
	Context string            `json:"context"`
}

type jsonItem struct {
	ID            int64           `json:"id"`
	Type          domain.ItemType `json:"type"`
	Description   string          `json:"description"`
	Priority      domain.Priority `json:"priority"`
	PriorityScore float64         `json:"priority_score"`
	Confidence    float64         `json:"confidence"`
	Source        jsonSource      `json:"source"`
	Tags          []string        `json:"tags"`
	Entities      domain.Entities `json:"entities"`
	Status        domain.Status   `json:"status"`
	IsDuplicate   bool            `json:"is_duplicate"`
	DuplicateOf   *int64          `json:"duplicate_of"`
	RelatedTo     []int64         `json:"related_to"`
	ExtractedAt   time.Time       `json:"extracted_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

type jsonRunSummary struct {
	*domain.AnalysisResult
	DurationSeconds float64 `json:"duration_seconds"`
}

// JSON renders the report as an indented JSON document.
func JSON(r Report, opts Options) ([]byte, error) {
	items := visibleItems(r.Items, opts.IncludeDuplicates)

	doc := jsonReport{
		GeneratedAt: opts.now(),
		TotalItems:  len(items),
		Items:       make([]jsonItem, 0, len(items)),
		Statistics:  r.Stats,
	}
	for _, item := range items {
		doc.Items = append(doc.Items, toJSONItem(item))
	}
	if r.Result != nil {
		doc.AnalysisResult = &jsonRunSummary{
			AnalysisResult:  r.Result,
			DurationSeconds: r.Result.DurationSeconds(),
		}
	}

	return json.MarshalIndent(doc, "", "  ")
}

func toJSONItem(item domain.Item) jsonItem {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	entities := item.Entities
	if entities == nil {
		entities = domain.Entities{}
	}
	related := item.RelatedTo()
	if related == nil {
		related = []int64{}
	}

	return jsonItem{
		ID:            item.ID,
		Type:          item.Type,
		Description:   item.Description,
		Priority:      item.Priority,
		PriorityScore: item.PriorityScore,
		Confidence:    item.Confidence,
		Source: jsonSource{
			Type:    item.SourceType,
			File:    item.SourceFile,
			Line:    item.SourceLine,
			Context: item.SourceContext,
		},
		Tags:        tags,
		Entities:    entities,
		Status:      item.Status,
		IsDuplicate: item.IsDuplicate,
		DuplicateOf: item.DuplicateOf,
		RelatedTo:   related,
		ExtractedAt: item.ExtractedAt,
		CreatedAt:   item.CreatedAt,
	}
}
