package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptExtractionSystem holds the extraction rules and output schema.
	// This prompt has no format placeholders.
	PromptExtractionSystem = "extraction_system"

	// PromptFewShot holds the worked examples shown before the input text.
	PromptFewShot = "few_shot_examples"

	// PromptCodeAddendum is appended when the input is source code.
	PromptCodeAddendum = "code_addendum"

	// PromptValidation asks the analysis model to review an extracted item.
	PromptValidation = "validation"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
