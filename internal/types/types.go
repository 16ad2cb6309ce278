// Package types holds the request and response bodies of the HTTP API.
package types

import (
	"time"

	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

// CreateWidgetRequest creates a widget over a dataset. Without Entities the
// configured default dataset is loaded.
type CreateWidgetRequest struct {
	Dataset  string             `json:"dataset"`
	Entities []map[string]any   `json:"entities,omitempty"`
	Disable  []string           `json:"disable,omitempty"`
	Weights  map[string]float64 `json:"weights,omitempty"`
}

// WidgetResponse describes a widget and its columns
type WidgetResponse struct {
	widget.Summary
	Columns []widget.Column `json:"columns"`
}

// HeaderEventRequest carries the optional weight of a header event
type HeaderEventRequest struct {
	Weight *float64 `json:"weight,omitempty"`
}

// HeaderEventResponse is returned after a header event was handled
type HeaderEventResponse struct {
	Event   kratu.HeaderEvent `json:"event"`
	Columns []widget.Column   `json:"columns"`
}

// SignalInfo describes one built-in signal definition
type SignalInfo struct {
	Name            string   `json:"name"`
	Fields          []string `json:"fields"`
	Format          string   `json:"format,omitempty"`
	CalculateWeight string   `json:"calculate_weight,omitempty"`
	Events          []string `json:"events,omitempty"`
	Weighted        bool     `json:"weighted"`
}

// SignalsResponse lists the signal definitions new widgets are built with
type SignalsResponse struct {
	Signals []SignalInfo `json:"signals"`
	Total   int          `json:"total"`
}

// NewSignalsResponse describes every definition of reg in declaration order
func NewSignalsResponse(reg *signals.Registry) SignalsResponse {
	defs := reg.Definitions()
	resp := SignalsResponse{
		Signals: make([]SignalInfo, 0, len(defs)),
		Total:   len(defs),
	}
	for _, def := range defs {
		info := SignalInfo{
			Name:     def.Name,
			Fields:   def.Fields(),
			Weighted: def.Weighted(),
		}
		if def.Format != nil {
			info.Format = def.Format.Name()
		}
		if def.CalculateWeight != nil {
			info.CalculateWeight = def.CalculateWeight.Name()
		}
		if def.Interactive() {
			info.Events = def.HeaderEventHandlers.Events()
		}
		resp.Signals = append(resp.Signals, info)
	}
	return resp
}

// HealthResponse reports service health
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Widgets   int                    `json:"widgets"`
	Services  map[string]string      `json:"services"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// StatsResponse reports resource usage of the service backends
type StatsResponse struct {
	Widgets     int                    `json:"widgets"`
	Snapshots   int                    `json:"snapshots"`
	Database    map[string]interface{} `json:"database"`
	Cache       map[string]interface{} `json:"cache"`
	Compression map[string]interface{} `json:"compression"`
	RateLimit   map[string]interface{} `json:"rate_limit"`
	Redis       map[string]interface{} `json:"redis"`
}
