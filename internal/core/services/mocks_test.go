package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService for testing.
// Responses are consumed in order; the last one repeats.
type mockLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	models    []string
	listErr   error
	pullErr   error
	pulled    []string
	prompts   []string
	messages  [][]driven.ChatMessage
	genOpts   []driven.GenerateOptions
	pingErr   error
	model     string
}

func (m *mockLLM) next() (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return `{"items": []}`, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.genOpts = append(m.genOpts, opts)
	return m.next()
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages)
	return m.next()
}

func (m *mockLLM) ListModels(_ context.Context) ([]string, error) {
	return m.models, m.listErr
}

func (m *mockLLM) PullModel(_ context.Context, name string) error {
	if m.pullErr != nil {
		return m.pullErr
	}
	m.pulled = append(m.pulled, name)
	return nil
}

func (m *mockLLM) ModelName() string {
	if m.model == "" {
		return "nuextract"
	}
	return m.model
}

func (m *mockLLM) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockLLM) Close() error {
	return nil
}

// fakeEmbedder maps each text to a fixed vector. Unknown texts embed to a
// vector derived from their first letter so unrelated texts stay apart.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
	texts   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.texts = append(f.texts, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		v := make([]float32, 26)
		if t != "" {
			idx := int(strings.ToLower(t)[0]) % 26
			v[idx] = 1
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 26 }

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Ping(context.Context) error { return nil }

func (f *fakeEmbedder) Close() error { return nil }

// fakeParser implements driven.SourceParser with canned chunks per file.
type fakeParser struct {
	chunks   map[string][]domain.Chunk
	parseErr map[string]error
	commits  []domain.Chunk
	head     string
	gitErr   error
	calls    int
}

func (p *fakeParser) Detect(path string) (domain.SourceType, bool) {
	switch filepath.Ext(path) {
	case ".md", ".json":
		return domain.SourceTypeConversation, true
	case ".py", ".go":
		return domain.SourceTypeCode, true
	default:
		return "", false
	}
}

func (p *fakeParser) ParseFile(_ context.Context, path string) ([]domain.Chunk, error) {
	p.calls++
	if err := p.parseErr[path]; err != nil {
		return nil, err
	}
	if chunks, ok := p.chunks[path]; ok {
		return chunks, nil
	}
	st, _ := p.Detect(path)
	return []domain.Chunk{{Text: "chunk of " + path, SourceType: st, SourceFile: path}}, nil
}

func (p *fakeParser) ParseGit(_ context.Context, _ string, _ string, _ time.Time) ([]domain.Chunk, string, error) {
	return p.commits, p.head, p.gitErr
}

// fakePipeline records how many chunks it saw.
type fakePipeline struct {
	seen int
	err  error
}

func (p *fakePipeline) Process(_ context.Context, chunks []domain.Chunk) ([]domain.Chunk, error) {
	p.seen += len(chunks)
	return chunks, p.err
}

// stubPromptStore returns fixed overrides.
type stubPromptStore struct {
	prompts map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	if p, ok := s.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("not found")
}

func (s *stubPromptStore) Reload() {}

// Compile-time interface checks.
var (
	_ driven.LLMService       = (*mockLLM)(nil)
	_ driven.EmbeddingService = (*fakeEmbedder)(nil)
	_ driven.SourceParser     = (*fakeParser)(nil)
	_ driven.ChunkPipeline    = (*fakePipeline)(nil)
	_ driven.PromptStore      = (*stubPromptStore)(nil)
)

func testItem(id int64, desc string) domain.Item {
	return domain.Item{
		ID:          id,
		Type:        domain.ItemTypeTODO,
		Description: desc,
		Priority:    domain.PriorityMedium,
		Confidence:  0.8,
		SourceType:  domain.SourceTypeConversation,
		SourceFile:  "notes.md",
		Status:      domain.StatusOpen,
	}
}
