// Package registry maps public model names to NVIDIA NIM model identifiers.
//
// A Registry is built once at startup, either from the table embedded in the
// binary or from an operator-supplied YAML file, and is read-only afterwards.
// It is safe for concurrent use.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultTable []byte

// Entry is one public name -> upstream name mapping.
type Entry struct {
	Name     string `yaml:"name"`
	Upstream string `yaml:"upstream"`
}

type file struct {
	Models []Entry `yaml:"models"`
}

// Registry is an immutable model lookup table.
type Registry struct {
	entries []Entry
	index   map[string]string
}

// Default returns the registry built from the embedded model table.
func Default() (*Registry, error) {
	return Parse(defaultTable)
}

// Load reads a registry from a YAML file. An empty path selects the
// embedded table.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model table: %w", err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from YAML. Unknown fields, blank names, duplicate
// names and empty tables are rejected.
func Parse(data []byte) (*Registry, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse model table: %w", err)
	}
	return New(f.Models)
}

// New builds a registry from entries, preserving their order.
func New(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("model table is empty")
	}

	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]string, len(entries)),
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("models[%d]: name is required", i)
		}
		if e.Upstream == "" {
			return nil, fmt.Errorf("models[%d] (%s): upstream is required", i, e.Name)
		}
		if _, dup := r.index[e.Name]; dup {
			return nil, fmt.Errorf("models[%d]: duplicate name %q", i, e.Name)
		}
		r.index[e.Name] = e.Upstream
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Lookup returns the upstream model id for a public name.
func (r *Registry) Lookup(name string) (string, bool) {
	upstream, ok := r.index[name]
	return upstream, ok
}

// Names returns the public model names in table order. The slice is a copy.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

func (r *Registry) Len() int { return len(r.entries) }
