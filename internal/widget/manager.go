package widget

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
)

// Summary describes a live widget
type Summary struct {
	ID        string    `json:"id"`
	Dataset   string    `json:"dataset"`
	Signals   int       `json:"signals"`
	Entities  int       `json:"entities"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager tracks live widgets. Every widget gets its own library instance.
type Manager struct {
	mu      sync.RWMutex
	widgets map[string]*Widget
	build   BuildFunc
	opts    []kratu.Option
}

// NewManager creates a manager that builds registries with build and
// libraries with opts
func NewManager(build BuildFunc, opts ...kratu.Option) *Manager {
	return &Manager{
		widgets: make(map[string]*Widget),
		build:   build,
		opts:    opts,
	}
}

// Create instantiates a widget over entities and registers it
func (m *Manager) Create(dataset string, entities []*kratu.Entity) (*Widget, error) {
	w, err := New(kratu.New(m.opts...), m.build)
	if err != nil {
		return nil, err
	}
	w.ID = uuid.New().String()
	w.Dataset = dataset
	w.Load(entities)

	m.mu.Lock()
	m.widgets[w.ID] = w
	m.mu.Unlock()

	slog.Debug("Widget created", "widget_id", w.ID, "dataset", dataset, "entities", len(entities))
	return w, nil
}

// Get returns the widget with id
func (m *Manager) Get(id string) (*Widget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.widgets[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("widget", id, "")
	}
	return w, nil
}

// Destroy discards the widget with id together with its library and registry
func (m *Manager) Destroy(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.widgets[id]; !ok {
		return apperrors.NewNotFoundError("widget", id, "")
	}
	delete(m.widgets, id)
	return nil
}

// List summarises live widgets, oldest first
func (m *Manager) List() []Summary {
	m.mu.RLock()
	widgets := make([]*Widget, 0, len(m.widgets))
	for _, w := range m.widgets {
		widgets = append(widgets, w)
	}
	m.mu.RUnlock()

	sort.Slice(widgets, func(i, j int) bool {
		return widgets[i].CreatedAt.Before(widgets[j].CreatedAt)
	})

	out := make([]Summary, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.Summary())
	}
	return out
}

// Summary describes w
func (w *Widget) Summary() Summary {
	return Summary{
		ID:        w.ID,
		Dataset:   w.Dataset,
		Signals:   w.registry.Len(),
		Entities:  w.Len(),
		CreatedAt: w.CreatedAt,
	}
}

// Count returns the number of live widgets
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.widgets)
}
