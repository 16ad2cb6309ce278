// Package source resolves where signal definitions and the default dataset
// come from: files named in configuration, or the embedded spaceships.
package source

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/kratu/internal/dataset"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/manifest"
	"github.com/ZanzyTHEbar/kratu/internal/spaceships"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

// Build returns the registry builder declared by the manifest at path, or the
// built-in spaceship definitions when path is empty. Manifests may reference
// the spaceship image formatter as "image".
func Build(path string) (widget.BuildFunc, error) {
	if path == "" {
		return spaceships.Definitions, nil
	}
	m, err := manifest.LoadFile(path, manifest.WithFormatter(spaceships.ImageFormatter.Name(), spaceships.ImageFormatter))
	if err != nil {
		return nil, err
	}
	slog.Debug("Signal manifest loaded", "path", path, "signals", len(m.File().Signals))
	return m.Build, nil
}

// Dataset loads the dataset at path and names it after the file, or returns
// the embedded spaceships when path is empty
func Dataset(path string) (string, []*kratu.Entity, error) {
	if path == "" {
		entities, err := dataset.Parse(spaceships.Dataset, dataset.FormatJSON)
		return spaceships.DatasetName, entities, err
	}
	entities, err := dataset.LoadFile(path)
	if err != nil {
		return "", nil, err
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), entities, nil
}
