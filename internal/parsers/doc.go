// Package parsers turns conversation logs, source files and git history into
// chunks ready for extraction.
//
// Parsers never call the model. They decide what text is worth extracting
// from and record where it came from:
//
//   - conversation: markdown and JSON chat exports, one chunk per file
//   - code: comment lines, one chunk per line with its line number
//   - git: commit messages on a branch, one chunk per commit
package parsers
