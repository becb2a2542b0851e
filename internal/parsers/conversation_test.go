package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{
			name: "list of messages",
			json: `[{"role": "user", "content": "Fix the login bug"}, {"role": "assistant", "content": "On it"}]`,
			want: "**User:** Fix the login bug\n\n**Assistant:** On it",
		},
		{
			name: "messages key",
			json: `{"title": "standup", "messages": [{"speaker": "alice", "text": "Ship it"}]}`,
			want: "**Alice:** Ship it",
		},
		{
			name: "conversation key with message field",
			json: `{"conversation": [{"role": "PRODUCT owner", "message": "Add export"}]}`,
			want: "**Product Owner:** Add export",
		},
		{
			name: "missing role and content",
			json: `[{"timestamp": 1}]`,
			want: "**Unknown:** ",
		},
		{
			name: "null role falls through",
			json: `[{"role": null, "speaker": "bob", "content": "hi"}]`,
			want: "**Bob:** hi",
		},
		{
			name: "non-object entries are stringified",
			json: `["plain line", 42]`,
			want: "plain line\n\n42",
		},
		{
			name: "other objects are dumped",
			json: `{"b": 1, "a": [1, 2]}`,
			want: "{\n  \"b\": 1,\n  \"a\": [\n    1,\n    2\n  ]\n}",
		},
		{
			name: "top level string",
			json: `"just text"`,
			want: "just text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conversationJSON([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConversationJSON_Invalid(t *testing.T) {
	_, err := conversationJSON([]byte(`{"messages": [`))
	assert.Error(t, err)
}

func TestParser_ParseFile_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "chat.json",
		`{"messages": [{"role": "user", "content": "We need rate limiting on the API"}]}`)

	chunks, err := New().ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "**User:** We need rate limiting on the API", chunks[0].Text)
	assert.Equal(t, "json", chunks[0].Metadata["format"])
}

func TestParser_ParseFile_MalformedJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.json", `[{"role": `)

	_, err := New().ParseFile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.json")
}
