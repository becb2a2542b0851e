package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes generic overrides, e.g.
	// CONVO_ANALYZER_EXTRACTION_CONFIDENCE_THRESHOLD=0.7.
	EnvPrefix = "CONVO_ANALYZER_"
)

// DefaultPaths are tried in order when no explicit config path is given.
var DefaultPaths = []string{"config.yaml", "config.yml", "config.toml"}

// legacyEnv maps the short environment names to config keys.
var legacyEnv = map[string]string{
	"OLLAMA_HOST":   "ollama.host",
	"OLLAMA_MODEL":  "ollama.extraction_model",
	"DATABASE_PATH": "database.path",
	"LOG_LEVEL":     "logging.level",
	"LOG_FILE":      "logging.file",
}

// ResolvePath returns the config file Load will read, or "" when none exists.
// An explicit path is returned unchanged even if it does not exist.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	for _, candidate := range DefaultPaths {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// Load reads configuration and validates it.
//
// Precedence (highest to lowest):
//  1. Environment variables (OLLAMA_HOST, CONVO_ANALYZER_OLLAMA_TIMEOUT, ...)
//  2. Config file (explicit path, else ./config.yaml, ./config.yml, ./config.toml)
//  3. Built-in defaults
func Load(path string) (domain.Config, error) {
	k := koanf.New(".")

	defaults, err := yamlv3.Marshal(domain.DefaultConfig())
	if err != nil {
		return domain.Config{}, fmt.Errorf("marshal defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return domain.Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if resolved := ResolvePath(path); resolved != "" {
		content, err := readConfigFile(resolved)
		if err != nil {
			return domain.Config{}, err
		}
		parser, err := parserFor(resolved)
		if err != nil {
			return domain.Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), parser); err != nil {
			return domain.Config{}, fmt.Errorf("load config file %s: %w", resolved, err)
		}
	}

	known := envKeys(k.Keys())
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return envToKey(s, known)
	}), nil); err != nil {
		return domain.Config{}, fmt.Errorf("load environment variables: %w", err)
	}

	var cfg domain.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return domain.Config{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	return cfg, nil
}

// readConfigFile reads a config file, rejecting directories and oversized files.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("%w: config file too large: %d bytes (max %d)",
			domain.ErrInvalidInput, info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

// parserFor picks a koanf parser from the file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".toml":
		return TOML(), nil
	default:
		return nil, fmt.Errorf("%w: config format %q", domain.ErrUnsupportedType, filepath.Ext(path))
	}
}

// envKeys indexes config keys by their environment spelling, so that
// nested keys with underscores resolve unambiguously:
// INTELLIGENCE_DEDUPLICATION_SIMILARITY_THRESHOLD -> intelligence.deduplication.similarity_threshold.
func envKeys(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		out[name] = key
	}
	return out
}

// envToKey maps an environment variable to a config key. Returns "" to skip it.
func envToKey(name string, known map[string]string) string {
	if key, ok := legacyEnv[name]; ok {
		return key
	}
	if !strings.HasPrefix(name, EnvPrefix) {
		return ""
	}
	return known[strings.TrimPrefix(name, EnvPrefix)]
}

// EnsureDirectories creates the database, log and report directories.
func EnsureDirectories(cfg domain.Config) error {
	var errs []error
	for _, dir := range cfg.Directories() {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			errs = append(errs, fmt.Errorf("create %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}
