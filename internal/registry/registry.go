// Package registry keeps the record types known to the process.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/searchsync/internal/domain/model"
)

// Registry holds registered types, sorted and de-duplicated by name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]model.Type
	names []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{types: make(map[string]model.Type)}
}

// Register validates t and adds it. Registering a name again replaces
// its declaration and mapping fragment.
func (r *Registry) Register(t model.Type) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", t.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[t.Name]; !ok {
		i := sort.SearchStrings(r.names, t.Name)
		r.names = append(r.names, "")
		copy(r.names[i+1:], r.names[i:])
		r.names[i] = t.Name
	}
	r.types[t.Name] = t
	return nil
}

// MustRegister registers t or panics.
func (r *Registry) MustRegister(t model.Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the declaration registered under name.
func (r *Registry) Get(name string) (model.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Mappings returns the merged mapping document keyed by type name.
// Every registered type gets an entry; one without a fragment maps to {}
// so the engine still knows the type. Embedded types get a _parent mapping
// pointing at their parent type unless their fragment already declares one.
func (r *Registry) Mappings() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]any, len(r.names))
	for _, name := range r.names {
		t := r.types[name]
		frag := make(map[string]any, len(t.Mapping)+1)
		for k, v := range t.Mapping {
			frag[k] = v
		}
		if t.IsEmbedded() {
			if _, ok := frag[model.ParentField]; !ok {
				frag[model.ParentField] = map[string]any{"type": t.EmbeddedIn.ParentType}
			}
		}
		out[name] = frag
	}
	return out
}
