package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

const sampleCode = `import os

# TODO: add input validation
def login(user):
    # This is the main entry point for authentication
    token = os.environ["TOKEN"]  // FIXME handle missing token
    return token

# fixme lower case works too
# TODO
`

func TestParseCode_ActionComments(t *testing.T) {
	chunks := parseCode("auth.py", []byte(sampleCode))
	require.Len(t, chunks, 3)

	assert.Equal(t, "# TODO: add input validation", chunks[0].Text)
	require.NotNil(t, chunks[0].SourceLine)
	assert.Equal(t, 3, *chunks[0].SourceLine)
	assert.Equal(t, domain.SourceTypeCode, chunks[0].SourceType)
	assert.Equal(t, "auth.py", chunks[0].SourceFile)
	assert.Equal(t, map[string]any{"language": "python", "comment_type": CommentAction}, chunks[0].Metadata)

	assert.Equal(t, 6, *chunks[1].SourceLine)
	assert.Contains(t, chunks[1].Text, "FIXME handle missing token")
	assert.Equal(t, 9, *chunks[2].SourceLine)
}

func TestParseCode_GeneralFallback(t *testing.T) {
	src := "// short\n// This function normalises the request headers\nfunc x() {}\n//   tiny   \n"

	chunks := parseCode("headers.go", []byte(src))
	require.Len(t, chunks, 1)
	assert.Equal(t, "// This function normalises the request headers", chunks[0].Text)
	assert.Equal(t, 2, *chunks[0].SourceLine)
	assert.Equal(t, CommentGeneral, chunks[0].Metadata["comment_type"])
	assert.Equal(t, "go", chunks[0].Metadata["language"])
}

func TestParseCode_NoComments(t *testing.T) {
	assert.Empty(t, parseCode("main.rs", []byte("fn main() {}\n")))
}

func TestParseCode_InvalidUTF8AndCRLF(t *testing.T) {
	src := []byte("x = 1\r\n# TODO remove \xff\xfe this hack\r\n")

	chunks := parseCode("hack.rb", src)
	require.Len(t, chunks, 1)
	assert.Equal(t, "# TODO remove  this hack", chunks[0].Text)
	assert.Equal(t, "ruby", chunks[0].Metadata["language"])
}

func TestParser_ParseFile_Code(t *testing.T) {
	path := writeFile(t, t.TempDir(), "server.js", "// TODO: add retries\nfetch(url)\n")

	chunks, err := New().ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "javascript", chunks[0].Metadata["language"])
}
