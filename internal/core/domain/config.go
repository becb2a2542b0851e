package domain

import (
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a backend for completions or embeddings.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible endpoint, typically a local server.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderFastEmbed is the in-process ONNX embedding runtime.
	AIProviderFastEmbed AIProvider = "fastembed"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderFastEmbed:
		return true
	default:
		return false
	}
}

// SupportsLLM returns true if the provider can serve completions.
func (p AIProvider) SupportsLLM() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible API"
	case AIProviderFastEmbed:
		return "FastEmbed (in-process)"
	default:
		return unknownDescription
	}
}

// GroupBy selects how reports are sectioned.
type GroupBy string

// Available report groupings.
const (
	GroupByType     GroupBy = "type"
	GroupByPriority GroupBy = "priority"
	GroupBySource   GroupBy = "source"
)

// IsValid returns true if the grouping is recognised.
func (g GroupBy) IsValid() bool {
	switch g {
	case GroupByType, GroupByPriority, GroupBySource:
		return true
	default:
		return false
	}
}

// OllamaConfig holds the Ollama connection and sampling settings.
type OllamaConfig struct {
	Host            string  `koanf:"host" yaml:"host" toml:"host"`
	ExtractionModel string  `koanf:"extraction_model" yaml:"extraction_model" toml:"extraction_model"`
	AnalysisModel   string  `koanf:"analysis_model" yaml:"analysis_model" toml:"analysis_model"`
	Temperature     float64 `koanf:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens       int     `koanf:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `koanf:"timeout" yaml:"timeout" toml:"timeout"`

	// MaxRetries caps attempts on connection failures.
	MaxRetries int `koanf:"max_retries" yaml:"max_retries" toml:"max_retries"`

	// RequestsPerSecond throttles model calls. Zero means unlimited.
	RequestsPerSecond float64 `koanf:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
}

// RequestTimeout returns Timeout as a duration.
func (c OllamaConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// OpenAIConfig holds settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL string `koanf:"base_url" yaml:"base_url" toml:"base_url"`
	APIKey  string `koanf:"api_key" yaml:"api_key" toml:"api_key"`
	Model   string `koanf:"model" yaml:"model" toml:"model"`
}

// LLMConfig selects the completion backend.
type LLMConfig struct {
	Provider AIProvider   `koanf:"provider" yaml:"provider" toml:"provider"`
	OpenAI   OpenAIConfig `koanf:"openai" yaml:"openai" toml:"openai"`
}

// ExtractionConfig holds extraction settings.
type ExtractionConfig struct {
	PromptVersion       string  `koanf:"prompt_version" yaml:"prompt_version" toml:"prompt_version"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold" yaml:"confidence_threshold" toml:"confidence_threshold"`
	BatchSize           int     `koanf:"batch_size" yaml:"batch_size" toml:"batch_size"`

	// ChunkSize is measured in estimated tokens.
	ChunkSize int `koanf:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`

	// ChunkOverlap is measured in characters.
	ChunkOverlap int `koanf:"chunk_overlap" yaml:"chunk_overlap" toml:"chunk_overlap"`

	// UseChat sends the template-style prompt through the chat endpoint.
	UseChat bool `koanf:"use_chat" yaml:"use_chat" toml:"use_chat"`
}

// DeduplicationConfig holds duplicate detection settings.
type DeduplicationConfig struct {
	Enabled             bool       `koanf:"enabled" yaml:"enabled" toml:"enabled"`
	SimilarityThreshold float64    `koanf:"similarity_threshold" yaml:"similarity_threshold" toml:"similarity_threshold"`
	FuzzyThreshold      float64    `koanf:"fuzzy_threshold" yaml:"fuzzy_threshold" toml:"fuzzy_threshold"`
	EmbeddingModel      string     `koanf:"embedding_model" yaml:"embedding_model" toml:"embedding_model"`
	EmbeddingProvider   AIProvider `koanf:"embedding_provider" yaml:"embedding_provider" toml:"embedding_provider"`
	Keep                KeepPolicy `koanf:"keep" yaml:"keep" toml:"keep"`
}

// PriorityScoringConfig holds the scorer's keyword lists and weights.
type PriorityScoringConfig struct {
	UrgencyKeywords  []string `koanf:"urgency_keywords" yaml:"urgency_keywords" toml:"urgency_keywords"`
	ImpactKeywords   []string `koanf:"impact_keywords" yaml:"impact_keywords" toml:"impact_keywords"`
	SecurityKeywords []string `koanf:"security_keywords" yaml:"security_keywords" toml:"security_keywords"`
	BaseScore        float64  `koanf:"base_score" yaml:"base_score" toml:"base_score"`
	UrgencyBonus     float64  `koanf:"urgency_bonus" yaml:"urgency_bonus" toml:"urgency_bonus"`
	ImpactBonus      float64  `koanf:"impact_bonus" yaml:"impact_bonus" toml:"impact_bonus"`
}

// EntityLinkingConfig holds entity linking settings.
type EntityLinkingConfig struct {
	Enabled           bool `koanf:"enabled" yaml:"enabled" toml:"enabled"`
	MinEntitiesShared int  `koanf:"min_entities_shared" yaml:"min_entities_shared" toml:"min_entities_shared"`
}

// IntelligenceConfig groups the post-extraction passes.
type IntelligenceConfig struct {
	Deduplication   DeduplicationConfig   `koanf:"deduplication" yaml:"deduplication" toml:"deduplication"`
	PriorityScoring PriorityScoringConfig `koanf:"priority_scoring" yaml:"priority_scoring" toml:"priority_scoring"`
	EntityLinking   EntityLinkingConfig   `koanf:"entity_linking" yaml:"entity_linking" toml:"entity_linking"`
}

// DatabaseConfig holds store settings.
type DatabaseConfig struct {
	Path          string `koanf:"path" yaml:"path" toml:"path"`
	BackupEnabled bool   `koanf:"backup_enabled" yaml:"backup_enabled" toml:"backup_enabled"`
	BackupDir     string `koanf:"backup_dir" yaml:"backup_dir" toml:"backup_dir"`
}

// ReportingConfig holds report settings.
type ReportingConfig struct {
	OutputDir         string   `koanf:"output_dir" yaml:"output_dir" toml:"output_dir"`
	Formats           []string `koanf:"formats" yaml:"formats" toml:"formats"`
	GroupBy           GroupBy  `koanf:"group_by" yaml:"group_by" toml:"group_by"`
	IncludeDuplicates bool     `koanf:"include_duplicates" yaml:"include_duplicates" toml:"include_duplicates"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level   string `koanf:"level" yaml:"level" toml:"level"`
	File    string `koanf:"file" yaml:"file" toml:"file"`
	Console bool   `koanf:"console" yaml:"console" toml:"console"`
}

// GitSourceConfig controls commit message analysis.
type GitSourceConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled" toml:"enabled"`
	Branch  string `koanf:"branch" yaml:"branch" toml:"branch"`

	// Since is a natural-language date such as "30 days ago".
	Since string `koanf:"since" yaml:"since" toml:"since"`
}

// SourcesConfig lists the glob patterns used for discovery.
type SourcesConfig struct {
	Conversations []string        `koanf:"conversations" yaml:"conversations" toml:"conversations"`
	Code          []string        `koanf:"code" yaml:"code" toml:"code"`
	Documents     []string        `koanf:"documents" yaml:"documents" toml:"documents"`
	Git           GitSourceConfig `koanf:"git" yaml:"git" toml:"git"`
}

// Patterns returns every configured glob pattern.
func (s SourcesConfig) Patterns() []string {
	patterns := make([]string, 0, len(s.Conversations)+len(s.Code)+len(s.Documents))
	patterns = append(patterns, s.Conversations...)
	patterns = append(patterns, s.Code...)
	patterns = append(patterns, s.Documents...)
	return patterns
}

// Config holds all application settings.
type Config struct {
	Ollama       OllamaConfig       `koanf:"ollama" yaml:"ollama" toml:"ollama"`
	LLM          LLMConfig          `koanf:"llm" yaml:"llm" toml:"llm"`
	Extraction   ExtractionConfig   `koanf:"extraction" yaml:"extraction" toml:"extraction"`
	Intelligence IntelligenceConfig `koanf:"intelligence" yaml:"intelligence" toml:"intelligence"`
	Database     DatabaseConfig     `koanf:"database" yaml:"database" toml:"database"`
	Reporting    ReportingConfig    `koanf:"reporting" yaml:"reporting" toml:"reporting"`
	Logging      LoggingConfig      `koanf:"logging" yaml:"logging" toml:"logging"`
	Sources      SourcesConfig      `koanf:"sources" yaml:"sources" toml:"sources"`
}

// DefaultConfig returns settings with sensible defaults.
// Everything works against a stock local Ollama install.
func DefaultConfig() Config {
	return Config{
		Ollama: OllamaConfig{
			Host:            "http://localhost:11434",
			ExtractionModel: "nuextract",
			AnalysisModel:   "llama3.1:8b",
			Temperature:     0.1,
			MaxTokens:       2048,
			Timeout:         60,
			MaxRetries:      3,
		},
		LLM: LLMConfig{
			Provider: AIProviderOllama,
			OpenAI: OpenAIConfig{
				BaseURL: "http://localhost:8080/v1",
				Model:   "gpt-4o-mini",
			},
		},
		Extraction: ExtractionConfig{
			PromptVersion:       "v1.0",
			ConfidenceThreshold: 0.5,
			BatchSize:           10,
			ChunkSize:           1800,
			ChunkOverlap:        100,
		},
		Intelligence: IntelligenceConfig{
			Deduplication: DeduplicationConfig{
				Enabled:             true,
				SimilarityThreshold: 0.85,
				FuzzyThreshold:      0.9,
				EmbeddingModel:      "all-MiniLM-L6-v2",
				EmbeddingProvider:   AIProviderFastEmbed,
				Keep:                KeepFirst,
			},
			PriorityScoring: PriorityScoringConfig{
				UrgencyKeywords:  []string{"urgent", "critical", "asap", "immediately", "blocker"},
				ImpactKeywords:   []string{"breaks", "blocks", "prevents", "security", "data loss"},
				SecurityKeywords: []string{"security", "vulnerability", "exploit", "injection", "xss"},
				BaseScore:        0.5,
				UrgencyBonus:     0.2,
				ImpactBonus:      0.15,
			},
			EntityLinking: EntityLinkingConfig{
				Enabled:           true,
				MinEntitiesShared: 1,
			},
		},
		Database: DatabaseConfig{
			Path:          "data/database/analyzer.db",
			BackupEnabled: true,
			BackupDir:     "data/backups",
		},
		Reporting: ReportingConfig{
			OutputDir: "data/reports",
			Formats:   []string{"markdown", "json"},
			GroupBy:   GroupByType,
		},
		Logging: LoggingConfig{
			Level:   "INFO",
			File:    "data/logs/analyzer.log",
			Console: true,
		},
		Sources: SourcesConfig{
			Conversations: []string{"data/conversations/**/*.md", "data/conversations/**/*.json"},
			Code:          []string{"**/*.py", "**/*.js", "**/*.ts"},
			Documents:     []string{"**/TODO.md", "**/README.md", "**/NOTES.md"},
			Git: GitSourceConfig{
				Branch: "main",
				Since:  "30 days ago",
			},
		},
	}
}

// Directories returns the directories the application writes into.
func (c Config) Directories() []string {
	return []string{
		filepath.Dir(c.Database.Path),
		filepath.Dir(c.Logging.File),
		c.Reporting.OutputDir,
	}
}

// AllGroupings returns all report groupings.
func AllGroupings() []GroupBy {
	return []GroupBy{GroupByType, GroupByPriority, GroupBySource}
}

// AllKeepPolicies returns all keep policies.
func AllKeepPolicies() []KeepPolicy {
	return []KeepPolicy{KeepFirst, KeepHighestConfidence, KeepNewest}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Local sentence-transformer models
		"all-MiniLM-L6-v2": 384,
		"all-minilm":       384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
	}
}
