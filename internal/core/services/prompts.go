package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// PromptVersion tags extraction runs so results can be traced to a prompt set.
const PromptVersion = "v1.0"

const defaultExtractionSystemPrompt = `You are a precise information extraction system. Your task is to extract action items, bugs, feature requests, and project ideas from conversations and code.

IMPORTANT RULES:
1. Extract ONLY items explicitly mentioned in the text
2. Return valid JSON only, no additional commentary
3. Be conservative - if unsure, use lower confidence
4. Extract verbatim quotes for source_context
5. Assign realistic priorities based on context clues

Categories:
- TODO: Explicit action items or tasks mentioned
- BUG: Problems, errors, or issues described
- FEATURE: Feature requests or enhancement ideas
- PROJECT: Potential new projects or major initiatives

For each item extract:
- type: One of [TODO, BUG, FEATURE, PROJECT]
- description: Clear, concise description (5-500 characters)
- priority: Estimated priority [high, medium, low]
- source_context: Relevant quote from source text
- confidence: Your confidence in this extraction (0.0-1.0)

Priority guidelines:
- high: Urgent, critical, blocking, security issues, production problems
- medium: Important but not urgent, planned improvements
- low: Nice-to-have, future considerations, ideas

Confidence guidelines:
- 0.9-1.0: Explicitly stated with clear wording (e.g., "TODO: fix bug")
- 0.7-0.9: Clearly implied or discussed
- 0.5-0.7: Mentioned but ambiguous
- <0.5: Uncertain or questionable extraction
`

// userPromptTemplate carries the fixed output schema. {input_text} is replaced.
const userPromptTemplate = `Extract action items from the following text.

OUTPUT FORMAT (JSON only):
{
  "items": [
    {
      "type": "TODO",
      "description": "...",
      "priority": "high",
      "source_context": "...",
      "confidence": 0.95
    }
  ]
}

INPUT TEXT:
{input_text}

OUTPUT:
`

const defaultFewShotExamples = `
EXAMPLE 1:
Input: "We should fix the login timeout issue. Also TODO: update the docs."
Output: {
  "items": [
    {
      "type": "BUG",
      "description": "Fix login timeout issue",
      "priority": "high",
      "source_context": "We should fix the login timeout issue",
      "confidence": 0.9
    },
    {
      "type": "TODO",
      "description": "Update documentation",
      "priority": "medium",
      "source_context": "TODO: update the docs",
      "confidence": 0.95
    }
  ]
}

EXAMPLE 2:
Input: "CRITICAL: Payment processing is failing! Users can't complete purchases. This is blocking revenue."
Output: {
  "items": [
    {
      "type": "BUG",
      "description": "Payment processing failing, blocking user purchases",
      "priority": "high",
      "source_context": "CRITICAL: Payment processing is failing! Users can't complete purchases. This is blocking revenue.",
      "confidence": 0.95
    }
  ]
}

EXAMPLE 3:
Input: "Maybe we could add a dark mode feature someday. It might be nice."
Output: {
  "items": [
    {
      "type": "FEATURE",
      "description": "Add dark mode feature",
      "priority": "low",
      "source_context": "Maybe we could add a dark mode feature someday",
      "confidence": 0.7
    }
  ]
}

EXAMPLE 4:
Input: "# TODO: Refactor authentication\n# FIXME: SQL injection vulnerability in login\n# BUG: Cache not invalidating"
Output: {
  "items": [
    {
      "type": "TODO",
      "description": "Refactor authentication",
      "priority": "medium",
      "source_context": "TODO: Refactor authentication",
      "confidence": 0.95
    },
    {
      "type": "BUG",
      "description": "SQL injection vulnerability in login",
      "priority": "high",
      "source_context": "FIXME: SQL injection vulnerability in login",
      "confidence": 0.95
    },
    {
      "type": "BUG",
      "description": "Cache not invalidating",
      "priority": "medium",
      "source_context": "BUG: Cache not invalidating",
      "confidence": 0.9
    }
  ]
}

EXAMPLE 5:
Input: "What's the weather like today?"
Output: {
  "items": []
}
`

const defaultCodeAddendum = `
Code-specific notes:
- Look for TODO, FIXME, BUG, HACK, NOTE, XXX comments
- Security issues (SQL injection, XSS, etc.) are high priority
- Performance issues are typically medium priority
- Code cleanup/refactoring is typically low-medium priority
- Extract the function/class name if mentioned
`

const defaultValidationPrompt = `Review this extracted item for quality and accuracy:

Original Text:
{original_text}

Extracted Item:
- Type: {item_type}
- Description: {description}
- Priority: {priority}
- Confidence: {confidence}

Is this extraction:
1. Accurate (faithful to source)?
2. Well-described?
3. Appropriately prioritized?

Respond with JSON:
{
  "accurate": true/false,
  "well_described": true/false,
  "appropriate_priority": true/false,
  "suggested_confidence": 0.0-1.0,
  "reason": "brief explanation"
}
`

// nuExtractTemplate is the output template shown to template-style models.
const nuExtractTemplate = `{
  "items": [
    {
      "confidence": 0.0,
      "description": "",
      "priority": "",
      "source_context": "",
      "type": ""
    }
  ]
}`

// DefaultPrompts returns the built-in prompt texts keyed by prompt name.
// The file prompt store seeds its directory from this map.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptExtractionSystem: defaultExtractionSystemPrompt,
		driven.PromptFewShot:          defaultFewShotExamples,
		driven.PromptCodeAddendum:     defaultCodeAddendum,
		driven.PromptValidation:       defaultValidationPrompt,
	}
}

// PromptBuilder assembles extraction prompts, preferring overrides from an
// optional PromptStore and falling back to the built-in texts.
type PromptBuilder struct {
	store driven.PromptStore
}

// NewPromptBuilder creates a builder. store may be nil.
func NewPromptBuilder(store driven.PromptStore) *PromptBuilder {
	return &PromptBuilder{store: store}
}

// SetPromptStore replaces the prompt store.
func (b *PromptBuilder) SetPromptStore(store driven.PromptStore) {
	b.store = store
}

func (b *PromptBuilder) load(name string) string {
	if b != nil && b.store != nil {
		text, err := b.store.Load(name)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		if err != nil {
			logger.Debug("Prompt %s not loaded, using default: %v", name, err)
		}
	}
	return DefaultPrompts()[name]
}

// BuildExtractionPrompt returns the full generate prompt for text.
func (b *PromptBuilder) BuildExtractionPrompt(text string, includeExamples bool) string {
	var sb strings.Builder
	sb.WriteString(b.load(driven.PromptExtractionSystem))
	sb.WriteString("\n\n")
	if includeExamples {
		sb.WriteString(b.load(driven.PromptFewShot))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Now extract from this text:\n\n")
	sb.WriteString(strings.Replace(userPromptTemplate, "{input_text}", text, 1))
	return sb.String()
}

// BuildCodeExtractionPrompt prefixes the file path and appends the code addendum.
func (b *PromptBuilder) BuildCodeExtractionPrompt(code, filePath string) string {
	input := code
	if filePath != "" {
		input = "File: " + filePath + "\n\n" + code
	}
	return b.BuildExtractionPrompt(input, true) + "\n" + b.load(driven.PromptCodeAddendum)
}

// BuildNuExtractPrompt returns the template-style user message used with chat.
func (b *PromptBuilder) BuildNuExtractPrompt(text string) driven.ChatMessage {
	content := fmt.Sprintf(
		"Input: %s\n\nTemplate: %s\n\n"+
			"Extract all action items, TODOs, bugs, features, and project ideas following the template structure.\n",
		text, nuExtractTemplate,
	)
	return driven.ChatMessage{Role: "user", Content: content}
}

// BuildValidationPrompt asks the analysis model to review item against originalText.
func (b *PromptBuilder) BuildValidationPrompt(item domain.Item, originalText string) string {
	r := strings.NewReplacer(
		"{original_text}", originalText,
		"{item_type}", item.Type.String(),
		"{description}", item.Description,
		"{priority}", item.Priority.String(),
		"{confidence}", strconv.FormatFloat(item.Confidence, 'f', -1, 64),
	)
	return r.Replace(b.load(driven.PromptValidation))
}

// BuildChunkPrompt picks the prompt variant for the chunk's source type.
func (b *PromptBuilder) BuildChunkPrompt(chunk domain.Chunk) string {
	if chunk.SourceType == domain.SourceTypeCode {
		return b.BuildCodeExtractionPrompt(chunk.Text, chunk.SourceFile)
	}
	return b.BuildExtractionPrompt(chunk.Text, true)
}
