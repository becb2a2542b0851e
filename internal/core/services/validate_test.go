package services

import (
	"strings"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

func validExtracted() domain.ExtractedItem {
	return domain.ExtractedItem{
		Type:          domain.ItemTypeTODO,
		Description:   "Update the docs",
		Priority:      domain.PriorityMedium,
		SourceContext: "TODO: update the docs",
		Confidence:    0.9,
	}
}

func TestValidateExtractedItem(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ExtractedItem)
		field  string
	}{
		{name: "valid"},
		{name: "unknown type", mutate: func(i *domain.ExtractedItem) { i.Type = "CHORE" }, field: "type"},
		{name: "unknown priority", mutate: func(i *domain.ExtractedItem) { i.Priority = "urgent" }, field: "priority"},
		{name: "short description", mutate: func(i *domain.ExtractedItem) { i.Description = "fix" }, field: "description"},
		{name: "long description", mutate: func(i *domain.ExtractedItem) { i.Description = strings.Repeat("a", 1001) }, field: "description"},
		{name: "long context", mutate: func(i *domain.ExtractedItem) { i.SourceContext = strings.Repeat("a", 2001) }, field: "source_context"},
		{name: "confidence above one", mutate: func(i *domain.ExtractedItem) { i.Confidence = 1.5 }, field: "confidence"},
		{name: "negative confidence", mutate: func(i *domain.ExtractedItem) { i.Confidence = -0.1 }, field: "confidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validExtracted()
			if tt.mutate != nil {
				tt.mutate(&item)
			}
			err := ValidateExtractedItem(item)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Equal(t, tt.field, fieldErrs[0].Field)
		})
	}
}

func TestValidateExtractedItem_BoundaryLengths(t *testing.T) {
	item := validExtracted()
	item.Description = strings.Repeat("é", domain.MinDescriptionLength)
	assert.NoError(t, ValidateExtractedItem(item), "length counts characters, not bytes")

	item.Description = strings.Repeat("a", domain.MaxDescriptionLength)
	item.SourceContext = strings.Repeat("b", domain.MaxSourceContextLength)
	assert.NoError(t, ValidateExtractedItem(item))
}

func TestValidateExtractionResult_OneBadItemFailsAll(t *testing.T) {
	bad := validExtracted()
	bad.Type = "nope"
	result := domain.ExtractionResult{Items: []domain.ExtractedItem{validExtracted(), bad}}

	err := ValidateExtractionResult(result)
	require.Error(t, err)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "items[1].type", fieldErrs[0].Field)

	assert.NoError(t, ValidateExtractionResult(domain.ExtractionResult{}))
}

func TestNormaliseExtractedItem(t *testing.T) {
	item := validExtracted()
	item.Description = "  Fix   the\n\tlogin  "
	item.SourceContext = "a\n\nb"

	got := NormaliseExtractedItem(item)
	assert.Equal(t, "Fix the login", got.Description)
	assert.Equal(t, "a b", got.SourceContext)
}

func TestValidateItem(t *testing.T) {
	item := testItem(1, "Write the release notes")
	item.PriorityScore = 0.6
	require.NoError(t, ValidateItem(item))

	item.SourceFile = ""
	item.PriorityScore = 1.2
	err := ValidateItem(item)
	require.ErrorIs(t, err, domain.ErrValidation)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"priority_score", "source_file"}, fields)
}
