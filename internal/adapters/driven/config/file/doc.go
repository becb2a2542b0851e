// Package file provides file-based configuration for the analyzer.
//
// Adapters:
//   - Load: layered koanf configuration (defaults, YAML or TOML file, environment)
//   - PromptStore: user-editable prompt overrides on disk
package file
