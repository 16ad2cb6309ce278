package kratu

import (
	"fmt"
	"math"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

// toggleSignal includes or excludes the signal from scoring.
func (l *Library) toggleSignal(ev HeaderEvent) error {
	sig, err := l.lookup(ev.Signal)
	if err != nil {
		return err
	}
	sig.Disabled = !sig.Disabled
	l.logger.Debug("Signal toggled", "signal", sig.Key, "disabled", sig.Disabled)
	return nil
}

// adjustSignal sets the signal weight carried by the event.
func (l *Library) adjustSignal(ev HeaderEvent) error {
	sig, err := l.lookup(ev.Signal)
	if err != nil {
		return err
	}
	if ev.Weight == nil {
		return apperrors.NewValidationError(fmt.Sprintf("adjustSignal: weight is required for %s", sig.Key))
	}
	w := *ev.Weight
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return apperrors.NewValidationError(
			fmt.Sprintf("adjustSignal: weight for %s must be a non-negative number", sig.Key), w)
	}
	sig.Weight = w
	l.logger.Debug("Signal weight adjusted", "signal", sig.Key, "weight", w)
	return nil
}
