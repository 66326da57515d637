package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/archflow/pkg/errors"
)

// Format is a document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath infers the document format from a file extension.
// Unknown extensions are treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes a document as indented JSON.
func Marshal(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON document.
func Unmarshal(data []byte) (Data, error) {
	return Decode(bytes.NewReader(data), FormatJSON)
}

// Encode writes a document to w in the given format.
func Encode(w io.Writer, d Data, f Format) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
}

// Decode reads a document from r in the given format.
func Decode(r io.Reader, f Format) (Data, error) {
	var d Data
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
			return Data{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return Data{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return Data{}, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", f)
	}
	return d, nil
}

// ReadFile reads a document, choosing the format from the extension.
func ReadFile(path string) (Data, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Data{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return Data{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, FormatForPath(path))
}

// WriteFile writes a document, choosing the format from the extension.
// The file is created with 0644 permissions.
func WriteFile(path string, d Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Encode(f, d, FormatForPath(path))
}
