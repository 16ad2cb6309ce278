package kratu

import (
	"golang.org/x/net/html"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

// FormatFunc renders a raw value. It may mutate the cell it is given; a nil
// node means the function wrote into the cell itself and nothing should be
// appended.
type FormatFunc func(value any, cell *html.Node) (*html.Node, error)

// WeightFunc derives a weight for the entity's value of the signal.
type WeightFunc func(sig *Signal, entity *Entity) (float64, error)

// HandlerFunc reacts to an interaction on a column header.
type HandlerFunc func(ev HeaderEvent) error

// HeaderEvent is an interaction on a signal's column header.
type HeaderEvent struct {
	Type   string   `json:"type"`
	Signal string   `json:"signal"`
	Weight *float64 `json:"weight,omitempty"`
}

// Formatter is a named formatting behaviour. Callers share the pointer, so two
// definitions using the same formatter hold the same *Formatter.
type Formatter struct {
	name string
	fn   FormatFunc
}

// NewFormatter wraps fn under name
func NewFormatter(name string, fn FormatFunc) *Formatter {
	return &Formatter{name: name, fn: fn}
}

// Name returns the formatter name
func (f *Formatter) Name() string { return f.name }

// Format applies the formatter to value and cell
func (f *Formatter) Format(value any, cell *html.Node) (*html.Node, error) {
	return f.fn(value, cell)
}

// Calculation is a named weight strategy. Aggregate calculations summarise the
// entity score instead of contributing to it.
type Calculation struct {
	name      string
	aggregate bool
	fn        WeightFunc
}

// NewCalculation wraps a contributing weight strategy
func NewCalculation(name string, fn WeightFunc) *Calculation {
	return &Calculation{name: name, fn: fn}
}

// NewAggregateCalculation wraps a strategy that is evaluated after all
// contributing weights are known and is excluded from the score.
func NewAggregateCalculation(name string, fn WeightFunc) *Calculation {
	return &Calculation{name: name, aggregate: true, fn: fn}
}

// Name returns the calculation name
func (c *Calculation) Name() string { return c.name }

// Aggregate reports whether the calculation summarises rather than contributes
func (c *Calculation) Aggregate() bool { return c.aggregate }

// Calculate evaluates the strategy
func (c *Calculation) Calculate(sig *Signal, entity *Entity) (float64, error) {
	return c.fn(sig, entity)
}

// EventHandler is a named header interaction handler.
type EventHandler struct {
	name string
	fn   HandlerFunc
}

// NewEventHandler wraps fn under name
func NewEventHandler(name string, fn HandlerFunc) *EventHandler {
	return &EventHandler{name: name, fn: fn}
}

// Name returns the handler name
func (h *EventHandler) Name() string { return h.name }

// Handle dispatches ev
func (h *EventHandler) Handle(ev HeaderEvent) error {
	return h.fn(ev)
}

// EventHandlers groups the header interaction capabilities
type EventHandlers struct {
	ToggleSignal *EventHandler
	AdjustSignal *EventHandler
}

// Calculations groups the weight strategies
type Calculations struct {
	SumScore         *Calculation
	RankSmallToLarge *Calculation
	RankLargeToSmall *Calculation
}

// Formatters groups the value formatters
type Formatters struct {
	Money         *Formatter
	Percentage    *Formatter
	SingleDecimal *Formatter
	Boolean       *Formatter
	Integer       *Formatter
}

// Capabilities is everything a signal definition may reference.
type Capabilities struct {
	EventHandlers EventHandlers
	Calculations  Calculations
	Formatters    Formatters
}

// Capability reference names, as used in manifests and errors.
const (
	CapToggleSignal     = "eventHandlers.toggleSignal"
	CapAdjustSignal     = "eventHandlers.adjustSignal"
	CapSumScore         = "calculations.sumScore"
	CapRankSmallToLarge = "calculations.rankSmallToLarge"
	CapRankLargeToSmall = "calculations.rankLargeToSmall"
	CapMoney            = "formatters.money"
	CapPercentage       = "formatters.percentage"
	CapSingleDecimal    = "formatters.singleDecimal"
	CapBoolean          = "formatters.boolean"
	CapInteger          = "formatters.integer"
)

// Names lists every capability reference in declaration order
func Names() []string {
	return []string{
		CapToggleSignal, CapAdjustSignal,
		CapSumScore, CapRankSmallToLarge, CapRankLargeToSmall,
		CapMoney, CapPercentage, CapSingleDecimal, CapBoolean, CapInteger,
	}
}

// Lookup resolves a capability reference. The bool is false when the name is
// unknown or the capability is absent.
func (c Capabilities) Lookup(name string) (any, bool) {
	var v any
	switch name {
	case CapToggleSignal:
		v = c.EventHandlers.ToggleSignal
	case CapAdjustSignal:
		v = c.EventHandlers.AdjustSignal
	case CapSumScore:
		v = c.Calculations.SumScore
	case CapRankSmallToLarge:
		v = c.Calculations.RankSmallToLarge
	case CapRankLargeToSmall:
		v = c.Calculations.RankLargeToSmall
	case CapMoney:
		v = c.Formatters.Money
	case CapPercentage:
		v = c.Formatters.Percentage
	case CapSingleDecimal:
		v = c.Formatters.SingleDecimal
	case CapBoolean:
		v = c.Formatters.Boolean
	case CapInteger:
		v = c.Formatters.Integer
	default:
		return nil, false
	}

	switch typed := v.(type) {
	case *EventHandler:
		return typed, typed != nil
	case *Calculation:
		return typed, typed != nil
	case *Formatter:
		return typed, typed != nil
	}
	return nil, false
}

// Require fails with a missing capability error naming every absent reference
func (c Capabilities) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := c.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewMissingCapabilityError(missing...)
	}
	return nil
}
