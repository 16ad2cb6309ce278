package kratu

import (
	"math"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// DefaultWeight is the weight every signal starts with.
const DefaultWeight = 1.0

// Signal is the runtime state of one column.
type Signal struct {
	Key      string  `json:"key"`
	Title    string  `json:"title"`
	Weight   float64 `json:"weight"`
	Disabled bool    `json:"disabled"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Numeric  bool    `json:"numeric"`
}

// NewSignal creates the state for key with the default weight
func NewSignal(key string) *Signal {
	return &Signal{
		Key:    key,
		Title:  Title(key),
		Weight: DefaultWeight,
	}
}

// Observe widens the numeric range with v. Non-numeric values are ignored.
func (s *Signal) Observe(v any) {
	f, ok := Numeric(v)
	if !ok {
		return
	}
	if !s.Numeric {
		s.Min, s.Max, s.Numeric = f, f, true
		return
	}
	if f < s.Min {
		s.Min = f
	}
	if f > s.Max {
		s.Max = f
	}
}

// ResetRange forgets every observed value
func (s *Signal) ResetRange() {
	s.Min, s.Max, s.Numeric = 0, 0, false
}

// Entity is one row of the dataset.
type Entity struct {
	ID      string             `json:"id"`
	Values  map[string]any     `json:"values"`
	Score   float64            `json:"score"`
	Rank    int                `json:"rank"`
	Weights map[string]float64 `json:"weights,omitempty"`
}

// NewEntity creates an entity with the given values
func NewEntity(id string, values map[string]any) *Entity {
	if values == nil {
		values = map[string]any{}
	}
	return &Entity{ID: id, Values: values}
}

// Value returns the raw value for key
func (e *Entity) Value(key string) (any, bool) {
	v, ok := e.Values[key]
	return v, ok && v != nil
}

// Numeric coerces v to a finite float. Bools, NaN and infinities are not
// numeric.
func Numeric(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Title turns a camelCase key into header text: "kesselRunRecord" becomes
// "Kessel Run Record".
func Title(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
