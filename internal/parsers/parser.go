package parsers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
	"github.com/custodia-labs/convo-analyzer/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.SourceParser = (*Parser)(nil)

// Kind is the parser variant that handles a source.
type Kind int

// Available parser kinds.
const (
	KindConversation Kind = iota + 1
	KindCode
	KindGit
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConversation:
		return "conversation"
	case KindCode:
		return "code"
	case KindGit:
		return "git"
	default:
		return "unknown"
	}
}

// SourceType maps the kind to the source type recorded on items.
func (k Kind) SourceType() domain.SourceType {
	switch k {
	case KindConversation:
		return domain.SourceTypeConversation
	case KindCode:
		return domain.SourceTypeCode
	case KindGit:
		return domain.SourceTypeGit
	default:
		return ""
	}
}

var conversationExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".json":     {},
}

// codeLanguages maps code file extensions to the language recorded in chunk metadata.
var codeLanguages = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".jsx":  "javascript",
	".java": "java",
	".c":    "c",
	".cpp":  "cpp",
	".h":    "c",
	".hpp":  "cpp",
	".go":   "go",
	".rs":   "rust",
	".rb":   "ruby",
	".php":  "php",
	".sh":   "shell",
	".bash": "shell",
}

// Detect returns the kind that handles path, judged by its extension.
// Git repositories are never detected here; they are analysed explicitly.
func Detect(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := conversationExtensions[ext]; ok {
		return KindConversation, true
	}
	if _, ok := codeLanguages[ext]; ok {
		return KindCode, true
	}
	return 0, false
}

// Parser dispatches files to the conversation or code variant and reads
// git history.
type Parser struct{}

// New creates a parser.
func New() *Parser {
	return &Parser{}
}

// Detect reports the source type that handles path.
func (p *Parser) Detect(path string) (domain.SourceType, bool) {
	kind, ok := Detect(path)
	if !ok {
		return "", false
	}
	return kind.SourceType(), true
}

// ParseFile reads path and returns its chunks.
func (p *Parser) ParseFile(ctx context.Context, path string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind, ok := Detect(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoParser, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var chunks []domain.Chunk
	switch kind {
	case KindConversation:
		chunks, err = parseConversation(path, data)
	case KindCode:
		chunks = parseCode(path, data)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Parsed %d %s chunks from %s", len(chunks), kind, path)
	return chunks, nil
}
