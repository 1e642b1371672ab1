package style

import (
	"fmt"
	"sort"
	"strings"
)

// Key names a style property. Keys are created through a Registry and never
// change afterwards.
type Key struct {
	Name      string
	Index     int
	Inherited bool
	// Domain lists the value types a specified value may take.
	Domain Domain
	// Resolved lists the value types that may remain after resolution.
	Resolved Domain
	Default  Value
	// Keywords restricts keyword values when non-empty.
	Keywords []string
}

func (k *Key) String() string { return k.Name }

// AcceptsKeyword reports whether kw is a valid keyword for k.
func (k *Key) AcceptsKeyword(kw string) bool {
	if !k.Domain.Has(TypeKeyword) {
		return false
	}
	if len(k.Keywords) == 0 {
		return true
	}
	for _, s := range k.Keywords {
		if s == kw {
			return true
		}
	}
	return false
}

// Registry holds the set of known style keys.
type Registry struct {
	keys   []*Key
	byName map[string]*Key
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Key)}
}

// Register adds a key. Registering a duplicate name or registering into a
// frozen registry is a programming error and panics.
func (r *Registry) Register(k Key) *Key {
	if r.frozen {
		panic(fmt.Sprintf("style: register %q after freeze", k.Name))
	}
	name := strings.ToLower(k.Name)
	if _, dup := r.byName[name]; dup {
		panic(fmt.Sprintf("style: duplicate key %q", name))
	}
	if k.Resolved == 0 {
		k.Resolved = k.Domain
	}
	key := k
	key.Name = name
	key.Index = len(r.keys)
	r.keys = append(r.keys, &key)
	r.byName[name] = &key
	return &key
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() { r.frozen = true }

func (r *Registry) Frozen() bool { return r.frozen }

// FindKeyByName looks a key up by its CSS name.
func (r *Registry) FindKeyByName(name string) *Key {
	return r.byName[strings.ToLower(name)]
}

// Keys returns all keys in registration order.
func (r *Registry) Keys() []*Key {
	out := make([]*Key, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Registry) Len() int { return len(r.keys) }

// Names returns the sorted key names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
