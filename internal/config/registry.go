package config

import "sync"

// Selection is one entry of a selection list: a stored key and its label.
type Selection struct {
	Key   string
	Label string
}

// Registry holds the selection lists extended at start-up, such as the
// process methods payment journals may use.
type Registry struct {
	mu             sync.RWMutex
	processMethods []Selection
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddProcessMethod registers a process method. Adding a key twice keeps the
// first registration.
func (r *Registry) AddProcessMethod(key, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.processMethods {
		if s.Key == key {
			return
		}
	}
	r.processMethods = append(r.processMethods, Selection{Key: key, Label: label})
}

// HasProcessMethod reports whether key was registered.
func (r *Registry) HasProcessMethod(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.processMethods {
		if s.Key == key {
			return true
		}
	}
	return false
}

// ProcessMethods returns a copy of the registered process methods.
func (r *Registry) ProcessMethods() []Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Selection, len(r.processMethods))
	copy(out, r.processMethods)
	return out
}
