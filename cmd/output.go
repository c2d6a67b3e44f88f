package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"evalgo.org/contentupgrade/internal/document"
	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/helpers"
)

// writeFormatted encodes v as indented JSON or YAML.
func writeFormatted(w io.Writer, v interface{}, format string) error {
	switch format {
	case helpers.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	case helpers.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// readEnvelope loads a content envelope from path, or from stdin when path is "-".
func readEnvelope(path string, stdin io.Reader) (*domain.ContentEnvelope, error) {
	var env domain.ContentEnvelope

	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, helpers.MaxContentSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > helpers.MaxContentSize {
			return nil, fmt.Errorf("stdin exceeds %d bytes", helpers.MaxContentSize)
		}
		if err := helpers.DecodeContent(data, helpers.FormatJSON, &env); err != nil {
			return nil, err
		}
	} else if err := helpers.DecodeContentFile(path, &env); err != nil {
		return nil, err
	}

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// openOutput returns stdout when path is empty, otherwise a created file.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

// asMap returns v as a plain map when it holds a document.
func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case document.Document:
		return map[string]interface{}(m)
	case map[string]interface{}:
		return m
	default:
		return nil
	}
}
