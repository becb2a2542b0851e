package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

// Config file formats accepted by WriteDefault and Encode.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Encode renders cfg in the given format.
func Encode(cfg domain.Config, format string) ([]byte, error) {
	switch format {
	case FormatYAML, "yml", "":
		return yaml.Marshal(cfg)
	case FormatTOML:
		return toml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("%w: config format %q", domain.ErrUnsupportedType, format)
	}
}

// WriteDefault writes a starter config file. It refuses to overwrite an
// existing file.
func WriteDefault(path, format string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s already exists", domain.ErrInvalidInput, path)
	}

	data, err := Encode(domain.DefaultConfig(), format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
