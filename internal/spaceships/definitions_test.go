package spaceships

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
)

var toggleSignals = []string{
	"cost", "resellValueDrop", "engineSize", "hyperdrive",
	"kesselRunRecord", "freightCapacity", "passengerCapacity",
}

func TestDefinitionsFields(t *testing.T) {
	lib := kratu.New()
	caps := lib.Capabilities()
	r, err := Definitions(caps)
	require.NoError(t, err)

	f, c := caps.Formatters, caps.Calculations
	tests := []struct {
		name   string
		format *kratu.Formatter
		weight *kratu.Calculation
		toggle bool
	}{
		{"name", nil, c.SumScore, false},
		{"model", nil, c.SumScore, false},
		{"imageUrl", ImageFormatter, nil, false},
		{"cost", f.Money, c.RankSmallToLarge, true},
		{"resellValueDrop", f.Percentage, nil, true},
		{"engineSize", f.SingleDecimal, c.RankLargeToSmall, true},
		{"hyperdrive", f.Boolean, nil, true},
		{"kesselRunRecord", f.Integer, c.RankSmallToLarge, true},
		{"freightCapacity", nil, c.RankLargeToSmall, true},
		{"passengerCapacity", f.Integer, c.RankLargeToSmall, true},
	}

	var names []string
	for _, tt := range tests {
		names = append(names, tt.name)
	}
	assert.Equal(t, names, r.Names())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := r.Lookup(tt.name)
			require.True(t, ok)

			var want []string
			if tt.format != nil {
				want = append(want, signals.FieldFormat)
			}
			if tt.weight != nil {
				want = append(want, signals.FieldCalculateWeight)
			}
			if tt.toggle {
				want = append(want, signals.FieldHeaderEventHandlers)
			}
			assert.Equal(t, want, def.Fields())

			assert.Same(t, tt.format, def.Format)
			assert.Same(t, tt.weight, def.CalculateWeight)
		})
	}
}

func TestImageFormatter(t *testing.T) {
	r, err := Definitions(kratu.New().Capabilities())
	require.NoError(t, err)
	def, _ := r.Lookup("imageUrl")

	for _, src := range []string{"img/falcon.png", "", "https://example.com/x wing.png?a=1&b=2"} {
		t.Run(src, func(t *testing.T) {
			cell := kratu.NewCell()
			node, err := def.Format.Format(src, cell)
			require.NoError(t, err)
			assert.Nil(t, node)

			require.NotNil(t, cell.FirstChild)
			assert.Same(t, cell.FirstChild, cell.LastChild, "exactly one child")
			img := cell.FirstChild
			assert.Equal(t, html.ElementNode, img.Type)
			assert.Equal(t, atom.Img, img.DataAtom)
			got, ok := kratu.Attr(img, "src")
			require.True(t, ok)
			assert.Equal(t, src, got)
			assert.Equal(t, []string{ImageClass}, kratu.Classes(cell))
		})
	}

	t.Run("coerces non-string values", func(t *testing.T) {
		tests := []struct {
			value any
			want  string
		}{
			{42, "42"},
			{json.Number("7"), "7"},
			{true, "true"},
			{nil, ""},
		}
		for _, tt := range tests {
			cell := kratu.NewCell()
			_, err := def.Format.Format(tt.value, cell)
			require.NoError(t, err)
			got, ok := kratu.Attr(cell.FirstChild, "src")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		}
	})

	t.Run("keeps existing classes", func(t *testing.T) {
		cell := kratu.NewCell()
		kratu.AddClass(cell, "signal")
		_, err := def.Format.Format("a.png", cell)
		require.NoError(t, err)
		assert.Equal(t, []string{"signal", ImageClass}, kratu.Classes(cell))
	})
}

func TestToggleSignalIsShared(t *testing.T) {
	caps := kratu.New().Capabilities()
	r, err := Definitions(caps)
	require.NoError(t, err)

	first, _ := r.Lookup(toggleSignals[0])
	require.NotNil(t, first.HeaderEventHandlers)

	for _, name := range toggleSignals {
		def, _ := r.Lookup(name)
		assert.Same(t, first.HeaderEventHandlers, def.HeaderEventHandlers, name)

		click, ok := def.HeaderEventHandlers.Handler("click")
		require.True(t, ok)
		assert.Same(t, caps.EventHandlers.ToggleSignal, click)

		menu, ok := def.HeaderEventHandlers.Handler("contextmenu")
		require.True(t, ok)
		assert.Same(t, caps.EventHandlers.AdjustSignal, menu)
	}

	for _, name := range []string{"name", "model", "imageUrl"} {
		def, _ := r.Lookup(name)
		assert.False(t, def.Interactive(), name)
	}
}

func TestUnweightedSignalsNeverWeighted(t *testing.T) {
	r, err := Definitions(kratu.New().Capabilities())
	require.NoError(t, err)

	var weighted []string
	for _, def := range r.Weighted() {
		weighted = append(weighted, def.Name)
	}
	assert.Equal(t, []string{"cost", "engineSize", "kesselRunRecord", "freightCapacity", "passengerCapacity"}, weighted)
	for _, name := range []string{"imageUrl", "resellValueDrop", "hyperdrive"} {
		assert.NotContains(t, weighted, name)
	}
}

func TestDefinitionsAreIndependentPerLibrary(t *testing.T) {
	a, b := kratu.New().Capabilities(), kratu.New().Capabilities()

	ra, err := Definitions(a)
	require.NoError(t, err)
	rb, err := Definitions(b)
	require.NoError(t, err)

	costA, _ := ra.Lookup("cost")
	costB, _ := rb.Lookup("cost")
	assert.Same(t, a.Formatters.Money, costA.Format)
	assert.Same(t, b.Formatters.Money, costB.Format)
	assert.NotSame(t, costA.Format, costB.Format)
	assert.NotSame(t, costA.HeaderEventHandlers, costB.HeaderEventHandlers)

	clickB, _ := costB.HeaderEventHandlers.Handler("click")
	assert.Same(t, b.EventHandlers.ToggleSignal, clickB)
}

func TestDefinitionsMissingCapability(t *testing.T) {
	caps := kratu.New().Capabilities()
	caps.Formatters.Money = nil
	caps.EventHandlers.AdjustSignal = nil

	r, err := Definitions(caps)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.True(t, apperrors.Is(err, apperrors.CategoryMissingCapability))
	assert.Contains(t, err.Error(), kratu.CapMoney)
	assert.Contains(t, err.Error(), kratu.CapAdjustSignal)

	_, err = Definitions(kratu.Capabilities{})
	require.Error(t, err)
	for _, name := range kratu.Names() {
		assert.Contains(t, err.Error(), name)
	}
}

func TestEmbeddedAssets(t *testing.T) {
	assert.NotEmpty(t, Dataset)
	assert.Contains(t, string(Manifest), `signal "passengerCapacity"`)
}
