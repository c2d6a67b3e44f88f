// Package helpers provides utility functions and constants for content upgrade operations.
package helpers

// Multipart form field keys
const (
	MultipartRequestField     = "request"
	MultipartContentKeyFormat = "task_%d_content"
)

// Temporary file prefixes
const (
	TempFileContentPrefix = "content_upload_"
)

// File extensions
const (
	ExtJSON = ".json"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// Content document encodings
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatUnknown = "unknown"
)

// MaxContentSize bounds a single uploaded content document.
const MaxContentSize = 32 << 20

// Debug log messages
const (
	DebugPrefix     = "DEBUG: "
	DebugHTTPPrefix = "DEBUG HTTP: "
)
