// Package manifest declares signal registries in HCL. Capability references
// are resolved against a library when the registry is built, so a manifest
// naming an unknown or absent capability fails before any widget uses it.
package manifest

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/kratu"
	"github.com/ZanzyTHEbar/kratu/internal/signals"
	"github.com/ZanzyTHEbar/kratu/internal/suggest"
)

// Manifest is a parsed manifest ready to be bound to libraries
type Manifest struct {
	filename   string
	file       File
	formatters map[string]*kratu.Formatter
}

// Option configures a Manifest
type Option func(*Manifest)

// WithFormatter makes a formatter that is not part of the library available
// under name
func WithFormatter(name string, f *kratu.Formatter) Option {
	return func(m *Manifest) {
		m.formatters[name] = f
	}
}

// Parse decodes src. filename is only used in diagnostics.
func Parse(src []byte, filename string, opts ...Option) (*Manifest, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("failed to parse manifest %s: %s", filename, diags.Error()))
	}

	m := &Manifest{
		filename:   filename,
		formatters: make(map[string]*kratu.Formatter),
	}
	diags = gohcl.DecodeBody(f.Body, nil, &m.file)
	if diags.HasErrors() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("failed to decode manifest %s: %s", filename, diags.Error()))
	}
	for _, opt := range opts {
		opt(m)
	}

	slog.Debug("Manifest decoded", "file", filename,
		"signals", len(m.file.Signals), "header_handlers", len(m.file.HeaderHandlers))
	return m, nil
}

// LoadFile parses the manifest at path
func LoadFile(path string, opts ...Option) (*Manifest, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read manifest %s: %s", path, diags.Error()), diags)
	}
	return Parse(f.Bytes, path, opts...)
}

// File returns the decoded manifest
func (m *Manifest) File() File {
	return m.file
}

// Build binds the manifest to caps. It fails with a missing capability error
// listing every referenced capability caps does not provide, and with a not
// found error for references that name nothing.
func (m *Manifest) Build(caps kratu.Capabilities) (*signals.Registry, error) {
	r := &resolver{m: m, caps: caps}

	handlers := make(map[string]*signals.HeaderHandlers, len(m.file.HeaderHandlers))
	// blocks left unbuilt because they reference missing capabilities
	incomplete := make(map[string]bool)
	for _, block := range m.file.HeaderHandlers {
		if _, dup := handlers[block.Name]; dup {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s: header_handlers %q is declared twice", m.filename, block.Name))
		}
		before := len(r.missing)
		events := make(map[string]*kratu.EventHandler, len(block.Events))
		for event, ref := range block.Events {
			h, err := r.eventHandler(ref)
			if err != nil {
				return nil, err
			}
			events[event] = h
		}
		if len(r.missing) > before {
			incomplete[block.Name] = true
			continue
		}
		shared, err := signals.NewHeaderHandlers(events)
		if err != nil {
			return nil, err
		}
		handlers[block.Name] = shared
	}

	defs := make([]signals.Definition, 0, len(m.file.Signals))
	for _, block := range m.file.Signals {
		def := signals.Definition{Name: block.Name}
		if block.Format != nil {
			f, err := r.formatter(*block.Format)
			if err != nil {
				return nil, err
			}
			def.Format = f
		}
		if block.CalculateWeight != nil {
			c, err := r.calculation(*block.CalculateWeight)
			if err != nil {
				return nil, err
			}
			def.CalculateWeight = c
		}
		if block.HeaderHandlers != nil {
			name := *block.HeaderHandlers
			h, ok := handlers[name]
			if !ok && !incomplete[name] {
				return nil, apperrors.NewNotFoundError("header_handlers", name,
					suggest.Closest(name, m.handlerNames()))
			}
			def.HeaderEventHandlers = h
		}
		defs = append(defs, def)
	}

	if r.failed() {
		return nil, apperrors.NewMissingCapabilityError(r.missing...)
	}
	return signals.NewRegistry(defs...)
}

func (m *Manifest) handlerNames() []string {
	names := make([]string, 0, len(m.file.HeaderHandlers))
	for _, block := range m.file.HeaderHandlers {
		names = append(names, block.Name)
	}
	return names
}

// resolver turns capability references into values. Known references the
// library does not provide are collected so they can be reported together.
type resolver struct {
	m       *Manifest
	caps    kratu.Capabilities
	missing []string
}

func (r *resolver) failed() bool {
	return len(r.missing) > 0
}

func (r *resolver) lookup(ref, group string) (any, error) {
	if v, ok := r.caps.Lookup(ref); ok {
		if !strings.HasPrefix(ref, group+".") {
			return nil, apperrors.NewValidationError(fmt.Sprintf("%s: %q is not in %s", r.m.filename, ref, group))
		}
		return v, nil
	}
	for _, name := range kratu.Names() {
		if name == ref {
			if !strings.HasPrefix(ref, group+".") {
				return nil, apperrors.NewValidationError(fmt.Sprintf("%s: %q is not in %s", r.m.filename, ref, group))
			}
			r.missing = append(r.missing, ref)
			return nil, nil
		}
	}
	return nil, apperrors.NewNotFoundError("capability", ref, suggest.Closest(ref, r.candidates(group)))
}

func (r *resolver) candidates(group string) []string {
	var out []string
	for _, name := range kratu.Names() {
		if strings.HasPrefix(name, group+".") {
			out = append(out, name)
		}
	}
	if group == "formatters" {
		extra := make([]string, 0, len(r.m.formatters))
		for name := range r.m.formatters {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		out = append(out, extra...)
	}
	return out
}

func (r *resolver) formatter(ref string) (*kratu.Formatter, error) {
	if f, ok := r.m.formatters[ref]; ok {
		return f, nil
	}
	v, err := r.lookup(ref, "formatters")
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*kratu.Formatter), nil
}

func (r *resolver) calculation(ref string) (*kratu.Calculation, error) {
	v, err := r.lookup(ref, "calculations")
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*kratu.Calculation), nil
}

func (r *resolver) eventHandler(ref string) (*kratu.EventHandler, error) {
	v, err := r.lookup(ref, "eventHandlers")
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*kratu.EventHandler), nil
}
