// Package data builds render contexts from data files and command-line
// assignments.
//
// Files are decoded by extension: .yaml and .yml with yaml.v3, .toml with
// BurntSushi/toml and .json with encoding/json. Every document must be a
// mapping at the top level. Later files are merged over earlier ones with
// nested mappings merged key by key.
package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leaptmpl/pkg/core"
)

// Format names a data file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for files whose extension names no supported format.
var ErrUnknownFormat = errors.New("unknown data format")

// FormatOf infers the format of path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// LoadFiles decodes each file and merges the results in order.
func LoadFiles(paths ...string) (core.Context, error) {
	ctx := core.Context{}
	for _, path := range paths {
		fileCtx, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		ctx.Merge(fileCtx)
	}
	return ctx, nil
}

// LoadFile decodes a single data file.
func LoadFile(path string) (core.Context, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ctx, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ctx, nil
}

// Decode reads one document of the given format from r.
func Decode(r io.Reader, format Format) (core.Context, error) {
	doc := map[string]any{}
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, err
		}
	case FormatJSON:
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.UseNumber()
			if err := dec.Decode(&doc); err != nil {
				return nil, err
			}
		}
		doc = normalizeJSON(doc).(map[string]any)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return core.ContextFrom(doc), nil
}

// normalizeJSON turns json.Number into int64 or float64.
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeJSON(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeJSON(e)
		}
		return t
	}
	return v
}
