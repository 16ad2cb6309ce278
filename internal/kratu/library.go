// Package kratu is the scoring, ranking and formatting library that signal
// definitions reference. A Library owns per-signal state and exposes its
// behaviours as a Capabilities value whose pointers stay stable for the
// library's lifetime.
//
// A Library is not safe for concurrent use; callers serialise access.
package kratu

import (
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/suggest"
)

// Library is one Kratu instance.
type Library struct {
	signals map[string]*Signal
	order   []string
	printer *message.Printer
	caps    Capabilities
	logger  *slog.Logger
}

// Option configures a Library
type Option func(*Library)

// WithLogger sets the library logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// WithLanguage selects the locale used for number formatting
func WithLanguage(tag language.Tag) Option {
	return func(l *Library) {
		l.printer = message.NewPrinter(tag)
	}
}

// New creates a library with its capabilities bound to it
func New(opts ...Option) *Library {
	l := &Library{
		signals: make(map[string]*Signal),
		printer: message.NewPrinter(language.English),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.caps = Capabilities{
		EventHandlers: EventHandlers{
			ToggleSignal: NewEventHandler("toggleSignal", l.toggleSignal),
			AdjustSignal: NewEventHandler("adjustSignal", l.adjustSignal),
		},
		Calculations: Calculations{
			SumScore:         NewAggregateCalculation("sumScore", l.sumScore),
			RankSmallToLarge: NewCalculation("rankSmallToLarge", l.rankSmallToLarge),
			RankLargeToSmall: NewCalculation("rankLargeToSmall", l.rankLargeToSmall),
		},
		Formatters: Formatters{
			Money:         NewFormatter("money", l.money),
			Percentage:    NewFormatter("percentage", l.percentage),
			SingleDecimal: NewFormatter("singleDecimal", l.singleDecimal),
			Boolean:       NewFormatter("boolean", l.boolean),
			Integer:       NewFormatter("integer", l.integer),
		},
	}

	return l
}

// Capabilities returns the library's behaviours. Every call returns the same
// pointers.
func (l *Library) Capabilities() Capabilities {
	return l.caps
}

// Register creates state for key if it does not exist yet and returns it
func (l *Library) Register(key string) *Signal {
	if sig, ok := l.signals[key]; ok {
		return sig
	}
	sig := NewSignal(key)
	l.signals[key] = sig
	l.order = append(l.order, key)
	return sig
}

// Signal returns the state for key
func (l *Library) Signal(key string) (*Signal, bool) {
	sig, ok := l.signals[key]
	return sig, ok
}

// Signals returns all signal states in registration order
func (l *Library) Signals() []*Signal {
	out := make([]*Signal, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.signals[key])
	}
	return out
}

// Observe recomputes the numeric range of every registered signal from entities
func (l *Library) Observe(entities []*Entity) {
	for _, sig := range l.signals {
		sig.ResetRange()
	}
	for _, e := range entities {
		for key, sig := range l.signals {
			if v, ok := e.Value(key); ok {
				sig.Observe(v)
			}
		}
	}
}

// lookup resolves key or fails with a not found error carrying a suggestion
func (l *Library) lookup(key string) (*Signal, error) {
	if sig, ok := l.signals[key]; ok {
		return sig, nil
	}
	return nil, apperrors.NewNotFoundError("signal", key, suggest.Closest(key, l.order))
}
