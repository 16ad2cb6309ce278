// Package dataset loads entities from JSON or YAML documents.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
)

// Format is the encoding of a dataset document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported dataset extension %q", filepath.Ext(path)))
	}
}

// LoadFile reads the dataset at path
func LoadFile(path string) ([]*kratu.Entity, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read dataset %s", path), err)
	}
	return Parse(data, format)
}

// Parse decodes a document holding an array of objects. Each object becomes an
// entity identified by its "id" value, else its "name", else its position.
func Parse(data []byte, format Format) ([]*kratu.Entity, error) {
	var rows []map[string]any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&rows); err != nil {
			return nil, apperrors.NewValidationError("invalid JSON dataset", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rows); err != nil {
			return nil, apperrors.NewValidationError("invalid YAML dataset", err)
		}
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported dataset format %q", format))
	}

	return FromRows(rows)
}

// FromRows turns decoded objects into entities
func FromRows(rows []map[string]any) ([]*kratu.Entity, error) {
	entities := make([]*kratu.Entity, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		id := entityID(row, i)
		if seen[id] {
			return nil, apperrors.NewValidationError(fmt.Sprintf("duplicate entity id %q at row %d", id, i))
		}
		seen[id] = true
		entities = append(entities, kratu.NewEntity(id, row))
	}
	return entities, nil
}

func entityID(row map[string]any, index int) string {
	for _, key := range []string{"id", "name"} {
		if v, ok := row[key]; ok && v != nil {
			if s, err := cast.ToStringE(v); err == nil && s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%d", index)
}
