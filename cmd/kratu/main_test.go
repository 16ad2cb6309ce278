package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/security"
	"github.com/ZanzyTHEbar/kratu/internal/types"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignalsCommand(t *testing.T) {
	out, err := run(t, "signals")
	require.NoError(t, err)
	assert.Contains(t, out, "Signals")
	assert.Contains(t, out, "kesselRunRecord")
	assert.Contains(t, out, "rankSmallToLarge")
	assert.Contains(t, out, "click, contextmenu")

	out, err = run(t, "signals", "--output", "json")
	require.NoError(t, err)
	var resp types.SignalsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 10, resp.Total)
}

func TestRankCommand(t *testing.T) {
	out, err := run(t, "rank")
	require.NoError(t, err)
	assert.Contains(t, out, "Ranking: spaceships")
	assert.Contains(t, out, "Millennium Falcon")
	assert.Contains(t, out, "Cost (1)")
	assert.NotContains(t, out, "Image Url")

	out, err = run(t, "rank", "--output", "json", "--disable", "cost", "--weight", "engineSize=2", "--top", "2")
	require.NoError(t, err)
	var ranking widget.Ranking
	require.NoError(t, json.Unmarshal([]byte(out), &ranking))
	require.Len(t, ranking.Rows, 2)
	for _, row := range ranking.Rows {
		assert.NotContains(t, row.Weights, "cost")
	}
	assert.True(t, ranking.Columns[3].Disabled)
	assert.Equal(t, 2.0, ranking.Columns[5].Weight)
}

func TestRankCommandWithFiles(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "freighters.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte(`
signal "cargo" {
  calculate_weight = "calculations.rankLargeToSmall"
}
`), 0o644))
	data := filepath.Join(dir, "freighters.json")
	require.NoError(t, os.WriteFile(data, []byte(`[{"name":"Ghtroc 720","cargo":135},{"name":"YT-2400","cargo":150}]`), 0o644))

	out, err := run(t, "rank", "--manifest", manifest, "--data", data, "-o", "json")
	require.NoError(t, err)
	var ranking widget.Ranking
	require.NoError(t, json.Unmarshal([]byte(out), &ranking))
	assert.Equal(t, "YT-2400", ranking.Rows[0].Entity)
	assert.InDelta(t, 1.0, ranking.Rows[0].Score, 1e-9)
}

func TestRankCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		category apperrors.ErrorCategory
	}{
		{"unknown signal", []string{"rank", "--disable", "cots"}, apperrors.CategoryNotFound},
		{"weight not a number", []string{"rank", "--weight", "cost=heavy"}, apperrors.CategoryValidation},
		{"negative weight", []string{"rank", "--weight", "cost=-1"}, apperrors.CategoryValidation},
		{"unknown output", []string{"rank", "-o", "xml"}, apperrors.CategoryValidation},
		{"negative top", []string{"rank", "--top", "-1"}, apperrors.CategoryValidation},
		{"missing dataset", []string{"rank", "--data", "missing.json"}, apperrors.CategoryConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.category), err.Error())
		})
	}
}

func TestCellsCommand(t *testing.T) {
	out, err := run(t, "cells", "Millennium Falcon")
	require.NoError(t, err)
	assert.Contains(t, out, "Cells: Millennium Falcon")
	assert.Contains(t, out, "$100,000.00")
	assert.Contains(t, out, "spaceshipImage")

	out, err = run(t, "cells", "Millennium Falcon", "--lang", "de", "-o", "json")
	require.NoError(t, err)
	var cells []widget.Cell
	require.NoError(t, json.Unmarshal([]byte(out), &cells))
	require.Len(t, cells, 10)

	bySignal := make(map[string]widget.Cell, len(cells))
	for _, c := range cells {
		bySignal[c.Signal] = c
	}
	assert.Equal(t, "$100.000,00", bySignal["cost"].HTML)
	assert.Equal(t, "7,5", bySignal["engineSize"].HTML)
	assert.Equal(t, "Yes", bySignal["hyperdrive"].HTML)
	assert.Contains(t, bySignal["imageUrl"].HTML, `src="img/falcon.png"`)
	assert.Equal(t, []string{"spaceshipImage"}, bySignal["imageUrl"].Classes)
}

func TestCellsCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		category apperrors.ErrorCategory
	}{
		{"unknown entity", []string{"cells", "Star Destroyer"}, apperrors.CategoryNotFound},
		{"bad language", []string{"cells", "X-wing", "--lang", "not a tag"}, apperrors.CategoryValidation},
		{"unknown output", []string{"cells", "X-wing", "-o", "xml"}, apperrors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.category), err.Error())
		})
	}
}

func TestAdminTokenCommand(t *testing.T) {
	t.Setenv("KRATU_CONFIG", "")
	t.Setenv("KRATU_ADMIN_SECRET", "s3cret")

	out, err := run(t, "admin-token", "--ttl", "5m")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	assert.NoError(t, security.ValidateAdminToken("s3cret", token))
	assert.Error(t, security.ValidateAdminToken("other", token))

	t.Setenv("KRATU_ADMIN_SECRET", "")
	_, err = run(t, "admin-token")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CategoryConfiguration))
}
