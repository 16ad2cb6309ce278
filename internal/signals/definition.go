// Package signals declares which library behaviours apply to each named
// column. A Registry is built once per widget and is read-only afterwards.
package signals

import (
	"fmt"
	"sort"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
)

// Field names as reported by Definition.Fields
const (
	FieldFormat              = "format"
	FieldCalculateWeight     = "calculateWeight"
	FieldHeaderEventHandlers = "headerEventHandlers"
)

// Definition is the set of optional behaviours for one signal. A nil field
// means the behaviour is absent: default formatting, no weight, no header
// interaction.
type Definition struct {
	Name                string
	Format              *kratu.Formatter
	CalculateWeight     *kratu.Calculation
	HeaderEventHandlers *HeaderHandlers
}

// Fields lists the behaviours present on the definition
func (d Definition) Fields() []string {
	var fields []string
	if d.Format != nil {
		fields = append(fields, FieldFormat)
	}
	if d.CalculateWeight != nil {
		fields = append(fields, FieldCalculateWeight)
	}
	if d.HeaderEventHandlers != nil {
		fields = append(fields, FieldHeaderEventHandlers)
	}
	return fields
}

// Weighted reports whether the signal contributes to the entity score.
// Aggregate calculations summarise the score and do not count.
func (d Definition) Weighted() bool {
	return d.CalculateWeight != nil && !d.CalculateWeight.Aggregate()
}

// Interactive reports whether the column header reacts to events
func (d Definition) Interactive() bool {
	return d.HeaderEventHandlers != nil
}

// HeaderHandlers maps DOM event names to handlers. It is immutable once built
// and is meant to be shared by every definition that binds the same events.
type HeaderHandlers struct {
	handlers map[string]*kratu.EventHandler
}

// NewHeaderHandlers copies events into a new immutable value
func NewHeaderHandlers(events map[string]*kratu.EventHandler) (*HeaderHandlers, error) {
	if len(events) == 0 {
		return nil, apperrors.NewValidationError("header handlers need at least one event")
	}
	h := &HeaderHandlers{handlers: make(map[string]*kratu.EventHandler, len(events))}
	for event, handler := range events {
		if event == "" {
			return nil, apperrors.NewValidationError("header handler event name is empty")
		}
		if handler == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("header handler for %q is nil", event))
		}
		h.handlers[event] = handler
	}
	return h, nil
}

// Handler returns the handler bound to event
func (h *HeaderHandlers) Handler(event string) (*kratu.EventHandler, bool) {
	handler, ok := h.handlers[event]
	return handler, ok
}

// Events lists the bound event names in sorted order
func (h *HeaderHandlers) Events() []string {
	events := make([]string, 0, len(h.handlers))
	for event := range h.handlers {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// Len returns the number of bound events
func (h *HeaderHandlers) Len() int {
	return len(h.handlers)
}
