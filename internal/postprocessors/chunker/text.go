package chunker

// CharsPerToken is the rough character count of one model token.
const CharsPerToken = 4

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return len([]rune(text)) / CharsPerToken
}

// Truncate cuts text to about maxTokens tokens, ending it with "..." when
// anything was removed.
func Truncate(text string, maxTokens int) string {
	return TruncateChars(text, maxTokens*CharsPerToken)
}

// TruncateChars cuts text to at most maxChars characters, ending it with
// "..." when anything was removed.
func TruncateChars(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	if maxChars <= 3 {
		return string(runes[:max(maxChars, 0)])
	}
	return string(runes[:maxChars-3]) + "..."
}
