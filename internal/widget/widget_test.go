package widget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/kratu/internal/dataset"
	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
	"github.com/ZanzyTHEbar/kratu/internal/spaceships"
)

func fleet() []*kratu.Entity {
	return []*kratu.Entity{
		kratu.NewEntity("falcon", map[string]any{
			"name": "Millennium Falcon", "imageUrl": "falcon.png",
			"cost": 100.0, "resellValueDrop": 0.25, "engineSize": 8.0, "hyperdrive": true,
			"kesselRunRecord": 12, "freightCapacity": 100, "passengerCapacity": 6,
		}),
		kratu.NewEntity("xwing", map[string]any{
			"name": "X-wing", "imageUrl": "xwing.png",
			"cost": 200.0, "resellValueDrop": 0.4, "engineSize": 4.0, "hyperdrive": true,
			"kesselRunRecord": 20, "freightCapacity": 0, "passengerCapacity": 0,
		}),
		kratu.NewEntity("tie", map[string]any{
			"name": "TIE Fighter", "imageUrl": "tie.png",
			"cost": 150.0, "resellValueDrop": 0.9, "engineSize": 6.0, "hyperdrive": false,
			"kesselRunRecord": 16, "freightCapacity": 50, "passengerCapacity": 3,
		}),
	}
}

func newSpaceshipWidget(t *testing.T) *Widget {
	t.Helper()
	w, err := New(kratu.New(), spaceships.Definitions)
	require.NoError(t, err)
	w.Load(fleet())
	return w
}

func scores(r *Ranking) map[string]float64 {
	out := make(map[string]float64, len(r.Rows))
	for _, row := range r.Rows {
		out[row.Entity] = row.Score
	}
	return out
}

func TestRank(t *testing.T) {
	w := newSpaceshipWidget(t)

	r, err := w.Rank()
	require.NoError(t, err)
	require.Len(t, r.Rows, 3)

	// falcon: cheapest, biggest engine, fastest run, most freight and passengers
	assert.Equal(t, "falcon", r.Rows[0].Entity)
	assert.Equal(t, 1, r.Rows[0].Rank)
	assert.InDelta(t, 5.0, r.Rows[0].Score, 1e-9)

	// tie: every range midpoint
	assert.Equal(t, "tie", r.Rows[1].Entity)
	assert.InDelta(t, 2.5, r.Rows[1].Score, 1e-9)

	assert.Equal(t, "xwing", r.Rows[2].Entity)
	assert.Equal(t, 3, r.Rows[2].Rank)
	assert.InDelta(t, 0.0, r.Rows[2].Score, 1e-9)

	// sumScore reports the total without adding to it
	assert.InDelta(t, 5.0, r.Rows[0].Weights["name"], 1e-9)
	assert.InDelta(t, 5.0, r.Rows[0].Weights["model"], 1e-9)
}

func TestRankNeverWeighsUnweightedSignals(t *testing.T) {
	w := newSpaceshipWidget(t)
	r, err := w.Rank()
	require.NoError(t, err)

	for _, row := range r.Rows {
		for _, name := range []string{"imageUrl", "resellValueDrop", "hyperdrive"} {
			assert.NotContains(t, row.Weights, name)
		}
	}

	// Garbage in an unweighted column cannot break ranking
	entities := fleet()
	entities[0].Values["resellValueDrop"] = "plenty"
	entities[1].Values["hyperdrive"] = "maybe"
	w.Load(entities)
	again, err := w.Rank()
	require.NoError(t, err)
	assert.Equal(t, scores(r), scores(again))
}

func TestRankTiesKeepLoadOrder(t *testing.T) {
	w := newSpaceshipWidget(t)
	w.Load([]*kratu.Entity{
		kratu.NewEntity("b", map[string]any{"cost": 1}),
		kratu.NewEntity("a", map[string]any{"cost": 1}),
		kratu.NewEntity("c", map[string]any{"cost": 1}),
	})

	r, err := w.Rank()
	require.NoError(t, err)
	var order []string
	for _, row := range r.Rows {
		order = append(order, row.Entity)
	}
	assert.Equal(t, []string{"b", "a", "c"}, order)
	assert.Equal(t, []int{1, 2, 3}, []int{r.Rows[0].Rank, r.Rows[1].Rank, r.Rows[2].Rank})
}

func TestHeaderEventsChangeScores(t *testing.T) {
	w := newSpaceshipWidget(t)

	t.Run("toggle removes a signal from scoring", func(t *testing.T) {
		require.NoError(t, w.HandleHeaderEvent("cost", "click", nil))
		r, err := w.Rank()
		require.NoError(t, err)
		for _, row := range r.Rows {
			assert.NotContains(t, row.Weights, "cost")
		}
		assert.InDelta(t, 4.0, scores(r)["falcon"], 1e-9)
		assert.True(t, r.Columns[3].Disabled)

		require.NoError(t, w.HandleHeaderEvent("cost", "click", nil))
	})

	t.Run("adjust rescales a contribution", func(t *testing.T) {
		weight := 3.0
		require.NoError(t, w.HandleHeaderEvent("cost", "contextmenu", &weight))
		r, err := w.Rank()
		require.NoError(t, err)
		assert.InDelta(t, 7.0, scores(r)["falcon"], 1e-9)
		assert.InDelta(t, 3.5, scores(r)["tie"], 1e-9)
	})

	t.Run("non-interactive header", func(t *testing.T) {
		err := w.HandleHeaderEvent("imageUrl", "click", nil)
		assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))
	})

	t.Run("unbound event", func(t *testing.T) {
		err := w.HandleHeaderEvent("cost", "clik", nil)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
		assert.Contains(t, err.Error(), `did you mean "click"`)
	})

	t.Run("unknown signal", func(t *testing.T) {
		err := w.HandleHeaderEvent("warpSpeed", "click", nil)
		assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
	})
}

func TestConfigure(t *testing.T) {
	t.Run("disable", func(t *testing.T) {
		w := newSpaceshipWidget(t)
		require.NoError(t, w.Configure([]string{"cost"}, nil))
		r, err := w.Rank()
		require.NoError(t, err)
		assert.InDelta(t, 4.0, scores(r)["falcon"], 1e-9)
	})

	t.Run("weights", func(t *testing.T) {
		w := newSpaceshipWidget(t)
		require.NoError(t, w.Configure(nil, map[string]float64{"cost": 3}))
		r, err := w.Rank()
		require.NoError(t, err)
		assert.InDelta(t, 7.0, scores(r)["falcon"], 1e-9)
	})

	t.Run("invalid input changes nothing", func(t *testing.T) {
		w := newSpaceshipWidget(t)

		err := w.Configure([]string{"cost"}, map[string]float64{"cost": -1})
		assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))

		err = w.Configure([]string{"cots"}, nil)
		assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
		assert.Contains(t, err.Error(), `did you mean "cost"`)

		for _, col := range w.Columns() {
			assert.False(t, col.Disabled, col.Key)
			assert.Equal(t, kratu.DefaultWeight, col.Weight, col.Key)
		}
	})
}

func TestFormatCell(t *testing.T) {
	w := newSpaceshipWidget(t)

	tests := []struct {
		signal  string
		html    string
		classes []string
	}{
		{"name", "Millennium Falcon", nil},
		{"imageUrl", `<img src="falcon.png"/>`, []string{spaceships.ImageClass}},
		{"cost", "$100.00", nil},
		{"resellValueDrop", "25.0%", nil},
		{"engineSize", "8.0", nil},
		{"hyperdrive", "Yes", nil},
		{"kesselRunRecord", "12", nil},
		{"freightCapacity", "100", nil},
		{"model", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.signal, func(t *testing.T) {
			cell, err := w.FormatCell("falcon", tt.signal)
			require.NoError(t, err)
			assert.Equal(t, tt.html, cell.HTML)
			assert.Equal(t, tt.classes, cell.Classes)
		})
	}

	_, err := w.FormatCell("falcon", "warpSpeed")
	assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))

	_, err = w.FormatCell("falcn", "cost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "falcon"`)
}

func TestRankRejectsNonFiniteValues(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format dataset.Format
	}{
		{"yaml nan", "- name: a\n  cost: .nan\n- name: b\n  cost: 10\n- name: c\n  cost: 20\n", dataset.FormatYAML},
		{"yaml infinity", "- name: a\n  cost: .inf\n- name: b\n  cost: 10\n", dataset.FormatYAML},
		{"json NaN string", `[{"name": "a", "cost": "NaN"}, {"name": "b", "cost": 10}]`, dataset.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities, err := dataset.Parse([]byte(tt.data), tt.format)
			require.NoError(t, err)

			w := newSpaceshipWidget(t)
			w.Load(entities)
			_, err = w.Rank()
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.CategoryValidation))
			assert.Contains(t, err.Error(), "cost of a is not numeric")
		})
	}
}

func TestFormatCellGroupsJSONNumbers(t *testing.T) {
	entities, err := dataset.Parse([]byte(`[{"name": "Ghtroc 720", "freightCapacity": 12500, "passengerCapacity": 1e20}]`), dataset.FormatJSON)
	require.NoError(t, err)

	w := newSpaceshipWidget(t)
	w.Load(entities)

	cell, err := w.FormatCell("Ghtroc 720", "freightCapacity")
	require.NoError(t, err)
	assert.Equal(t, "12,500", cell.HTML)

	cell, err = w.FormatCell("Ghtroc 720", "passengerCapacity")
	require.NoError(t, err)
	assert.Equal(t, "100,000,000,000,000,000,000", cell.HTML)
}

func TestColumns(t *testing.T) {
	w := newSpaceshipWidget(t)
	cols := w.Columns()
	require.Len(t, cols, 10)

	assert.Equal(t, "kesselRunRecord", cols[7].Key)
	assert.Equal(t, "Kessel Run Record", cols[7].Title)
	assert.Equal(t, "integer", cols[7].Format)
	assert.Equal(t, "rankSmallToLarge", cols[7].Calculation)
	assert.True(t, cols[7].Weighted)
	assert.Equal(t, []string{"click", "contextmenu"}, cols[7].Events)

	assert.Equal(t, "sumScore", cols[0].Calculation)
	assert.False(t, cols[0].Weighted)
	assert.Empty(t, cols[2].Events)
}

func TestNewPropagatesBuildErrors(t *testing.T) {
	lib := kratu.New()
	_, err := New(lib, func(caps kratu.Capabilities) (*signals.Registry, error) {
		caps.Formatters.Money = nil
		return spaceships.Definitions(caps)
	})
	assert.True(t, apperrors.Is(err, apperrors.CategoryMissingCapability))
}

func TestManager(t *testing.T) {
	m := NewManager(spaceships.Definitions)
	entities, err := dataset.Parse(spaceships.Dataset, dataset.FormatJSON)
	require.NoError(t, err)

	a, err := m.Create(spaceships.DatasetName, entities)
	require.NoError(t, err)
	b, err := m.Create(spaceships.DatasetName, entities)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Count())

	// Widgets do not share signal state
	require.NoError(t, a.HandleHeaderEvent("cost", "click", nil))
	assert.True(t, a.Columns()[3].Disabled)
	assert.False(t, b.Columns()[3].Disabled)

	got, err := m.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, 10, list[0].Signals)
	assert.Equal(t, 5, list[0].Entities)

	require.NoError(t, m.Destroy(a.ID))
	_, err = m.Get(a.ID)
	assert.True(t, apperrors.Is(err, apperrors.CategoryNotFound))
	assert.True(t, apperrors.Is(m.Destroy(a.ID), apperrors.CategoryNotFound))
}

func TestWidgetConcurrentUse(t *testing.T) {
	w := newSpaceshipWidget(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = w.HandleHeaderEvent("engineSize", "click", nil)
			}
			_, err := w.Rank()
			assert.NoError(t, err)
			_, err = w.FormatCell("tie", "cost")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
