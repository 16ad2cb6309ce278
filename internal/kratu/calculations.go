package kratu

import (
	"fmt"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

// sumScore reports the entity's total as the cell weight.
func (l *Library) sumScore(_ *Signal, e *Entity) (float64, error) {
	return e.Score, nil
}

// rankSmallToLarge favours small values: the range minimum earns the full weight.
func (l *Library) rankSmallToLarge(sig *Signal, e *Entity) (float64, error) {
	f, ok, err := rankValue("rankSmallToLarge", sig, e)
	if err != nil || !ok {
		return 0, err
	}
	if !sig.Numeric || sig.Max == sig.Min {
		return sig.Weight, nil
	}
	return sig.Weight * (sig.Max - f) / (sig.Max - sig.Min), nil
}

// rankLargeToSmall favours large values: the range maximum earns the full weight.
func (l *Library) rankLargeToSmall(sig *Signal, e *Entity) (float64, error) {
	f, ok, err := rankValue("rankLargeToSmall", sig, e)
	if err != nil || !ok {
		return 0, err
	}
	if !sig.Numeric || sig.Max == sig.Min {
		return sig.Weight, nil
	}
	return sig.Weight * (f - sig.Min) / (sig.Max - sig.Min), nil
}

// rankValue reads the numeric value; ok is false when the entity has none.
func rankValue(calc string, sig *Signal, e *Entity) (float64, bool, error) {
	v, ok := e.Value(sig.Key)
	if !ok {
		return 0, false, nil
	}
	f, isNum := Numeric(v)
	if !isNum {
		return 0, false, apperrors.NewValidationError(
			fmt.Sprintf("%s: %s of %s is not numeric (%v)", calc, sig.Key, e.ID, v))
	}
	return f, true, nil
}
