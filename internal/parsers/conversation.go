package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

const unknownRole = "Unknown"

func parseConversation(path string, data []byte) ([]domain.Chunk, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		text, err := conversationJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return conversationChunk(path, text, "json"), nil
	}
	return conversationChunk(path, string(data), "markdown"), nil
}

// conversationChunk wraps the whole conversation in one chunk. Blank
// conversations produce none.
func conversationChunk(path, text, format string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []domain.Chunk{{
		Text:       text,
		SourceType: domain.SourceTypeConversation,
		SourceFile: path,
		Metadata:   map[string]any{"format": format},
	}}
}

// conversationJSON renders the supported JSON shapes as text. A list is a
// list of messages; an object is searched for a messages or conversation
// key; anything else is dumped as indented JSON.
func conversationJSON(data []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", err
	}

	switch v := doc.(type) {
	case []any:
		return messagesToText(v), nil
	case map[string]any:
		for _, key := range []string{"messages", "conversation"} {
			if raw, ok := v[key]; ok {
				if messages, ok := raw.([]any); ok {
					return messagesToText(messages), nil
				}
				break
			}
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
			return "", err
		}
		return buf.String(), nil
	case string:
		return v, nil
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

func messagesToText(messages []any) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		obj, ok := msg.(map[string]any)
		if !ok {
			lines = append(lines, stringify(msg))
			continue
		}
		role := firstField(obj, "role", "speaker")
		if role == "" {
			role = unknownRole
		}
		content := firstField(obj, "content", "text", "message")
		lines = append(lines, fmt.Sprintf("**%s:** %s", cases.Title(language.Und).String(role), content))
	}
	return strings.Join(lines, "\n\n")
}

// firstField returns the first present, non-null key as text.
func firstField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return stringify(v)
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case map[string]any, []any:
		out, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(out)
	default:
		return fmt.Sprint(t)
	}
}
