package profile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Built-in profile names.
const (
	Swing      = "swing"
	ShortSwing = "short_swing"
)

// Registry maps profile names to profiles and instruments to profile names.
type Registry struct {
	mu          sync.RWMutex
	profiles    map[string]*Profile
	symbolIndex map[string]string
	defaultName string
}

// NewRegistry creates an empty registry. symbols maps an instrument to a
// profile name; defaultName serves every other instrument.
func NewRegistry(defaultName string, symbols map[string]string) *Registry {
	idx := make(map[string]string, len(symbols))
	for sym, name := range symbols {
		idx[normalizeSymbol(sym)] = name
	}
	return &Registry{
		profiles:    make(map[string]*Profile),
		symbolIndex: idx,
		defaultName: defaultName,
	}
}

// Load builds a registry from the built-in profiles plus every profile file
// in dir. A file whose profile name matches a built-in replaces it. An empty
// dir loads the built-ins only.
func Load(dir, defaultName string, symbols map[string]string) (*Registry, error) {
	r := NewRegistry(defaultName, symbols)
	builtin, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, p := range builtin {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	if dir != "" {
		extra, err := LoadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, p := range extra {
			if err := r.Register(p); err != nil {
				return nil, err
			}
		}
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return r, nil
}

// Register validates p and stores it under its name.
func (r *Registry) Register(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
	return nil
}

// Get returns the named profile.
func (r *Registry) Get(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// Resolve returns the profile configured for symbol, or the default one.
func (r *Registry) Resolve(symbol string) (*Profile, error) {
	r.mu.RLock()
	name, ok := r.symbolIndex[normalizeSymbol(symbol)]
	if !ok {
		name = r.defaultName
	}
	r.mu.RUnlock()
	return r.Get(name)
}

// Names returns the registered profile names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Profiles returns the registered profiles ordered by name.
func (r *Registry) Profiles() []*Profile {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Profile, 0, len(names))
	for _, name := range names {
		out = append(out, r.profiles[name])
	}
	return out
}

// check verifies that every referenced profile exists.
func (r *Registry) check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.profiles[r.defaultName]; !ok {
		return fmt.Errorf("default profile: %w: %s", ErrUnknownProfile, r.defaultName)
	}
	for sym, name := range r.symbolIndex {
		if _, ok := r.profiles[name]; !ok {
			return fmt.Errorf("instrument %s: %w: %s", sym, ErrUnknownProfile, name)
		}
	}
	return nil
}

func normalizeSymbol(sym string) string {
	return strings.ToUpper(strings.TrimSpace(sym))
}
