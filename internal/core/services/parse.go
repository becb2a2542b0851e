package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

const jsonFence = "```json"

// ParseModelJSON decodes a model response into v. It tries the whole
// response, then the body of a ```json fence, then the span from the first
// '{' to the last '}'. Returns domain.ErrMalformedResponse when all fail.
func ParseModelJSON(response string, v any) error {
	for _, candidate := range jsonCandidates(response) {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: no JSON object found in %d bytes", domain.ErrMalformedResponse, len(response))
}

func jsonCandidates(response string) []string {
	trimmed := strings.TrimSpace(response)
	candidates := []string{trimmed}

	if _, after, ok := strings.Cut(trimmed, jsonFence); ok {
		body, _, _ := strings.Cut(after, "```")
		candidates = append(candidates, strings.TrimSpace(body))
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidates = append(candidates, trimmed[start:end+1])
	}
	return candidates
}

// ParseExtractionResult decodes the items payload of a model response.
// A missing "items" key yields an empty result.
func ParseExtractionResult(response string) (domain.ExtractionResult, error) {
	var result domain.ExtractionResult
	if err := ParseModelJSON(response, &result); err != nil {
		return domain.ExtractionResult{}, err
	}
	if result.Items == nil {
		result.Items = []domain.ExtractedItem{}
	}
	return result, nil
}
