package parsers

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Comment classes recorded as comment_type.
const (
	CommentAction  = "action"
	CommentGeneral = "general"
)

// minGeneralCommentLength filters out short, non-actionable comments.
const minGeneralCommentLength = 15

var (
	actionComment  = regexp.MustCompile(`(?i)(?:#|//)\s*(?:TODO|FIXME|BUG|HACK|XXX|NOTE|FEATURE|IDEA)[\s:]*.+`)
	generalComment = regexp.MustCompile(`(?:#|//)\s*.+`)
)

// parseCode emits one chunk per action comment. Files without any action
// comment fall back to every sufficiently long comment line.
func parseCode(path string, data []byte) []domain.Chunk {
	language := codeLanguages[strings.ToLower(filepath.Ext(path))]
	if language == "" {
		language = "unknown"
	}

	lines := strings.Split(strings.ToValidUTF8(string(data), ""), "\n")

	chunks := commentChunks(path, language, lines, CommentAction, func(line, _ string) bool {
		return actionComment.MatchString(line)
	})
	if len(chunks) > 0 {
		return chunks
	}

	return commentChunks(path, language, lines, CommentGeneral, func(line, trimmed string) bool {
		return generalComment.MatchString(line) && len(trimmed) > minGeneralCommentLength
	})
}

func commentChunks(path, language string, lines []string, commentType string, match func(line, trimmed string) bool) []domain.Chunk {
	var chunks []domain.Chunk
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if !match(line, trimmed) {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:       trimmed,
			SourceType: domain.SourceTypeCode,
			SourceFile: path,
			SourceLine: domain.IntPtr(i + 1),
			Metadata: map[string]any{
				"language":     language,
				"comment_type": commentType,
			},
		})
	}
	return chunks
}
