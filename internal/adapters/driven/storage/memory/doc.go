// Package memory provides an in-memory implementation of driven.Store.
// It backs service tests and dry runs; nothing survives the process.
package memory
