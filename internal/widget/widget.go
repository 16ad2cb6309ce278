// Package widget binds a Kratu library, a signal registry and a dataset
// together. A widget computes weighted scores and ranks, formats cells and
// dispatches header interactions.
package widget

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
	"github.com/ZanzyTHEbar/kratu/internal/suggest"
)

// BuildFunc builds a registry from the capabilities of a library
type BuildFunc func(caps kratu.Capabilities) (*signals.Registry, error)

// Widget is one ranking table. It is safe for concurrent use.
type Widget struct {
	ID        string
	Dataset   string
	CreatedAt time.Time

	mu       sync.Mutex
	lib      *kratu.Library
	registry *signals.Registry
	entities []*kratu.Entity
	index    map[string]*kratu.Entity
}

// Column describes one signal as the table header shows it
type Column struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Weight      float64  `json:"weight"`
	Disabled    bool     `json:"disabled"`
	Format      string   `json:"format,omitempty"`
	Calculation string   `json:"calculation,omitempty"`
	Weighted    bool     `json:"weighted"`
	Events      []string `json:"events,omitempty"`
}

// Row is one ranked entity
type Row struct {
	Entity  string             `json:"entity"`
	Rank    int                `json:"rank"`
	Score   float64            `json:"score"`
	Weights map[string]float64 `json:"weights"`
}

// Ranking is the result of scoring every loaded entity
type Ranking struct {
	Columns  []Column  `json:"columns"`
	Rows     []Row     `json:"rows"`
	RankedAt time.Time `json:"ranked_at"`
}

// Cell is a formatted table cell
type Cell struct {
	Entity  string   `json:"entity"`
	Signal  string   `json:"signal"`
	HTML    string   `json:"html"`
	Classes []string `json:"classes,omitempty"`
}

// New builds the registry for lib. The registry captures lib's capabilities,
// so it must not be shared with another library.
func New(lib *kratu.Library, build BuildFunc) (*Widget, error) {
	registry, err := build(lib.Capabilities())
	if err != nil {
		return nil, err
	}
	w := &Widget{
		CreatedAt: time.Now(),
		lib:       lib,
		registry:  registry,
		index:     make(map[string]*kratu.Entity),
	}
	for _, name := range registry.Names() {
		lib.Register(name)
	}
	return w, nil
}

// Registry returns the widget's signal registry
func (w *Widget) Registry() *signals.Registry {
	return w.registry
}

// Load replaces the dataset. Entities are copied so several widgets can load
// the same rows.
func (w *Widget) Load(entities []*kratu.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entities = make([]*kratu.Entity, 0, len(entities))
	w.index = make(map[string]*kratu.Entity, len(entities))
	for _, e := range entities {
		c := kratu.NewEntity(e.ID, e.Values)
		w.entities = append(w.entities, c)
		w.index[c.ID] = c
	}
	w.lib.Observe(w.entities)
}

// Len returns the number of loaded entities
func (w *Widget) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entities)
}

// Rank scores every entity and orders them by score, highest first. Only
// enabled signals with a contributing calculation add to the score; aggregate
// calculations are evaluated once the score is known. Equal scores keep load
// order.
func (w *Widget) Rank() (*Ranking, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	defs := w.registry.Definitions()
	for _, e := range w.entities {
		e.Score = 0
		e.Weights = make(map[string]float64)

		for _, def := range defs {
			if !def.Weighted() {
				continue
			}
			sig, _ := w.lib.Signal(def.Name)
			if sig.Disabled {
				continue
			}
			weight, err := def.CalculateWeight.Calculate(sig, e)
			if err != nil {
				return nil, err
			}
			e.Weights[def.Name] = weight
			e.Score += weight
		}

		for _, def := range defs {
			if def.CalculateWeight == nil || !def.CalculateWeight.Aggregate() {
				continue
			}
			sig, _ := w.lib.Signal(def.Name)
			if sig.Disabled {
				continue
			}
			weight, err := def.CalculateWeight.Calculate(sig, e)
			if err != nil {
				return nil, err
			}
			e.Weights[def.Name] = weight
		}
	}

	ordered := append([]*kratu.Entity(nil), w.entities...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	ranking := &Ranking{
		Columns:  w.columns(),
		Rows:     make([]Row, 0, len(ordered)),
		RankedAt: time.Now(),
	}
	for i, e := range ordered {
		e.Rank = i + 1
		weights := make(map[string]float64, len(e.Weights))
		for k, v := range e.Weights {
			weights[k] = v
		}
		ranking.Rows = append(ranking.Rows, Row{
			Entity:  e.ID,
			Rank:    e.Rank,
			Score:   e.Score,
			Weights: weights,
		})
	}
	return ranking, nil
}

// FormatCell renders the entity's value for signal into a detached cell. The
// definition's formatter may write into the cell; a node it returns is
// appended. Signals without a formatter use default formatting.
func (w *Widget) FormatCell(entityID, signal string) (*Cell, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	def, err := w.registry.Definition(signal)
	if err != nil {
		return nil, err
	}
	e, err := w.entity(entityID)
	if err != nil {
		return nil, err
	}

	value := e.Values[signal]
	cell := kratu.NewCell()
	if def.Format != nil {
		node, err := def.Format.Format(value, cell)
		if err != nil {
			return nil, err
		}
		if node != nil {
			cell.AppendChild(node)
		}
	} else {
		cell.AppendChild(w.lib.FormatDefault(value))
	}

	inner, err := kratu.InnerHTML(cell)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render cell", err)
	}
	return &Cell{
		Entity:  e.ID,
		Signal:  signal,
		HTML:    inner,
		Classes: kratu.Classes(cell),
	}, nil
}

// HandleHeaderEvent dispatches event on signal's column header to the bound
// handler. Weight is passed through for handlers that adjust weights.
func (w *Widget) HandleHeaderEvent(signal, event string, weight *float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	def, err := w.registry.Definition(signal)
	if err != nil {
		return err
	}
	if !def.Interactive() {
		return apperrors.NewValidationError(fmt.Sprintf("header of signal %q is not interactive", signal))
	}
	handler, ok := def.HeaderEventHandlers.Handler(event)
	if !ok {
		events := def.HeaderEventHandlers.Events()
		return apperrors.NewNotFoundError("event", event, suggest.Closest(event, events))
	}
	return handler.Handle(kratu.HeaderEvent{Type: event, Signal: signal, Weight: weight})
}

// Configure sets the initial column state: signals in disable are excluded
// from scoring and weights overrides default weights. Nothing changes when
// any name or weight is invalid.
func (w *Widget) Configure(disable []string, weights map[string]float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, name := range disable {
		if _, err := w.registry.Definition(name); err != nil {
			return err
		}
	}
	for name, weight := range weights {
		if _, err := w.registry.Definition(name); err != nil {
			return err
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
			return apperrors.NewValidationError(fmt.Sprintf("weight for %s must be a non-negative number", name), weight)
		}
	}

	for _, name := range disable {
		sig, _ := w.lib.Signal(name)
		sig.Disabled = true
	}
	for name, weight := range weights {
		sig, _ := w.lib.Signal(name)
		sig.Weight = weight
	}
	return nil
}

// Columns describes every declared signal in declaration order
func (w *Widget) Columns() []Column {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.columns()
}

func (w *Widget) columns() []Column {
	defs := w.registry.Definitions()
	cols := make([]Column, 0, len(defs))
	for _, def := range defs {
		sig, _ := w.lib.Signal(def.Name)
		col := Column{
			Key:      def.Name,
			Title:    sig.Title,
			Weight:   sig.Weight,
			Disabled: sig.Disabled,
			Weighted: def.Weighted(),
		}
		if def.Format != nil {
			col.Format = def.Format.Name()
		}
		if def.CalculateWeight != nil {
			col.Calculation = def.CalculateWeight.Name()
		}
		if def.Interactive() {
			col.Events = def.HeaderEventHandlers.Events()
		}
		cols = append(cols, col)
	}
	return cols
}

func (w *Widget) entity(id string) (*kratu.Entity, error) {
	if e, ok := w.index[id]; ok {
		return e, nil
	}
	ids := make([]string, 0, len(w.entities))
	for _, e := range w.entities {
		ids = append(ids, e.ID)
	}
	return nil, apperrors.NewNotFoundError("entity", id, suggest.Closest(id, ids))
}
