package parsers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrPathValidation is returned when a path fails validation.
var ErrPathValidation = errors.New("path validation failed")

// maxFilenameLength is the filename limit common to mainstream filesystems.
const maxFilenameLength = 255

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// ValidateFilePath resolves path to an absolute path, rejecting symbolic
// links and, when baseDir is set, anything outside baseDir.
func ValidateFilePath(path, baseDir string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathValidation)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathValidation, path, err)
	}

	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("%w: symbolic links not allowed: %s", ErrPathValidation, abs)
	}

	if baseDir == "" {
		return abs, nil
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPathValidation, baseDir, err)
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s outside base directory %s", ErrPathValidation, abs, base)
	}
	return abs, nil
}

// SafeFilename turns name into a single path component that is safe to
// create on any platform.
func SafeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	name = strings.Map(func(r rune) rune {
		switch {
		case r == 0:
			return -1
		case unicode.IsControl(r):
			return '_'
		case strings.ContainsRune(`:*?"<>|`, r):
			return '_'
		default:
			return r
		}
	}, name)

	stem, _, _ := strings.Cut(name, ".")
	if _, ok := reservedNames[strings.ToUpper(stem)]; ok {
		name = "_" + name
	}

	if len(name) > maxFilenameLength {
		name = truncateFilename(name)
	}

	if strings.Trim(name, ".") == "" {
		return "unnamed_file"
	}
	return name
}

// truncateFilename caps name at maxFilenameLength bytes, keeping the extension.
func truncateFilename(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) >= maxFilenameLength {
		return strings.ToValidUTF8(name[:maxFilenameLength], "")
	}
	stem := strings.TrimSuffix(name, ext)
	return strings.ToValidUTF8(stem[:maxFilenameLength-len(ext)], "") + ext
}
