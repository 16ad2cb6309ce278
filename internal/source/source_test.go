package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/spaceships"
)

func TestBuildDefaultsToSpaceships(t *testing.T) {
	build, err := Build("")
	require.NoError(t, err)

	reg, err := build(kratu.New().Capabilities())
	require.NoError(t, err)
	assert.Equal(t, 10, reg.Len())
}

func TestBuildFromManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ships.hcl")
	require.NoError(t, os.WriteFile(path, spaceships.Manifest, 0o644))

	build, err := Build(path)
	require.NoError(t, err)
	reg, err := build(kratu.New().Capabilities())
	require.NoError(t, err)

	def, err := reg.Definition("imageUrl")
	require.NoError(t, err)
	assert.Same(t, spaceships.ImageFormatter, def.Format)

	_, err = Build(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.True(t, apperrors.Is(err, apperrors.CategoryConfiguration))
}

func TestDataset(t *testing.T) {
	name, entities, err := Dataset("")
	require.NoError(t, err)
	assert.Equal(t, spaceships.DatasetName, name)
	assert.Len(t, entities, 5)

	path := filepath.Join(t.TempDir(), "freighters.yml")
	require.NoError(t, os.WriteFile(path, []byte("- name: YT-2400\n  cargo: 150\n"), 0o644))
	name, entities, err = Dataset(path)
	require.NoError(t, err)
	assert.Equal(t, "freighters", name)
	require.Len(t, entities, 1)
	assert.Equal(t, "YT-2400", entities[0].ID)
}
