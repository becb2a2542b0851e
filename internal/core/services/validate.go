package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hay-kot/criterio"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// collapseWhitespace trims s and folds every whitespace run to one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormaliseExtractedItem collapses whitespace in the free-text fields.
func NormaliseExtractedItem(item domain.ExtractedItem) domain.ExtractedItem {
	item.Description = collapseWhitespace(item.Description)
	item.SourceContext = collapseWhitespace(item.SourceContext)
	return item
}

// ValidateExtractedItem checks one model-produced item against the item schema.
// Failures are returned as criterio.FieldErrors joined with domain.ErrValidation.
func ValidateExtractedItem(item domain.ExtractedItem) error {
	return wrapValidation(validateExtractedItem("", item))
}

// ValidateExtractionResult validates every item. One invalid item fails the result.
func ValidateExtractionResult(result domain.ExtractionResult) error {
	errs := make([]error, 0, len(result.Items))
	for i, item := range result.Items {
		errs = append(errs, validateExtractedItem(fmt.Sprintf("items[%d].", i), item))
	}
	return wrapValidation(criterio.ValidateStruct(errs...))
}

// ValidateItem checks a converted item before it is persisted.
func ValidateItem(item domain.Item) error {
	return wrapValidation(criterio.ValidateStruct(
		criterio.Run("type", item.Type, itemType),
		criterio.Run("priority", item.Priority, priority),
		criterio.Run("description", item.Description, descriptionLength),
		criterio.Run("source_context", item.SourceContext, sourceContextLength),
		criterio.Run("confidence", item.Confidence, unitScore),
		criterio.Run("priority_score", item.PriorityScore, unitScore),
		criterio.Run("source_type", item.SourceType, sourceType),
		criterio.Run("source_file", item.SourceFile, required),
	))
}

func validateExtractedItem(prefix string, item domain.ExtractedItem) error {
	return criterio.ValidateStruct(
		criterio.Run(prefix+"type", item.Type, itemType),
		criterio.Run(prefix+"priority", item.Priority, priority),
		criterio.Run(prefix+"description", item.Description, descriptionLength),
		criterio.Run(prefix+"source_context", item.SourceContext, sourceContextLength),
		criterio.Run(prefix+"confidence", item.Confidence, unitScore),
	)
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(domain.ErrValidation, err)
}

func itemType(t domain.ItemType) error {
	if !t.IsValid() {
		return fmt.Errorf("unknown item type %q", t)
	}
	return nil
}

func priority(p domain.Priority) error {
	if !p.IsValid() {
		return fmt.Errorf("unknown priority %q", p)
	}
	return nil
}

func sourceType(s domain.SourceType) error {
	if !s.IsValid() {
		return fmt.Errorf("unknown source type %q", s)
	}
	return nil
}

func descriptionLength(s string) error {
	n := utf8.RuneCountInString(s)
	if n < domain.MinDescriptionLength || n > domain.MaxDescriptionLength {
		return fmt.Errorf("must be %d-%d characters, got %d",
			domain.MinDescriptionLength, domain.MaxDescriptionLength, n)
	}
	return nil
}

func sourceContextLength(s string) error {
	if n := utf8.RuneCountInString(s); n > domain.MaxSourceContextLength {
		return fmt.Errorf("must be at most %d characters, got %d", domain.MaxSourceContextLength, n)
	}
	return nil
}

func unitScore(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("must be between 0 and 1, got %g", f)
	}
	return nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}
