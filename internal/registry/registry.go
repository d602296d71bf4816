// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

type (
	// Entry is a node that can be registered.
	Entry interface {
		comparable
		// Identity returns the current identity of the entry.
		Identity() string
		// Dispose releases the entry. A disposed entry is never returned again.
		Dispose()
	}

	// Container is implemented by entries that own other registered entries.
	// Remove disposes the contained entries recursively.
	Container[E any] interface {
		Contained() []E
	}

	// Registry is the identity cache of one project. It is safe for
	// concurrent use.
	Registry[E Entry] struct {
		mu      sync.RWMutex
		entries map[string]E
		logger  *log.Logger
	}

	// Option configures a Registry.
	Option func(*options)

	options struct {
		logger *log.Logger
	}
)

// WithLogger sets the logger used for disposal diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New creates an empty registry.
func New[E Entry](opts ...Option) *Registry[E] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return &Registry[E]{
		entries: make(map[string]E),
		logger:  o.logger,
	}
}

// Get returns the entry registered under identity.
func (r *Registry[E]) Get(identity string) (E, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[identity]
	return e, ok
}

// Put registers e under its identity. An entry already registered under
// that identity is disposed and replaced.
func (r *Registry[E]) Put(e E) {
	r.mu.Lock()
	old, replaced := r.put(e)
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("identity replaced", "identity", e.Identity())
		old.Dispose()
	}
}

// Resolve returns the entry registered under identity when match accepts it.
// Otherwise create builds a new entry, which replaces (and disposes) any
// entry registered under the same identity. created reports whether create
// was called.
//
// match lets callers treat a cached entry with a different parent or kind
// as a miss, which is how the same backing resource can be reached through
// the normal tree and through an include overlay.
func (r *Registry[E]) Resolve(identity string, match func(E) bool, create func() E) (e E, created bool) {
	r.mu.RLock()
	cached, ok := r.entries[identity]
	r.mu.RUnlock()
	if ok && (match == nil || match(cached)) {
		return cached, false
	}

	e = create()
	r.Put(e)
	return e, true
}

// Remove unregisters and disposes the entry under identity together with
// every entry it contains. It returns the number of disposed entries.
func (r *Registry[E]) Remove(identity string) int {
	r.mu.Lock()
	e, ok := r.entries[identity]
	if !ok {
		r.mu.Unlock()
		return 0
	}
	removed := r.collect(e, nil)
	r.mu.Unlock()

	for _, d := range removed {
		d.Dispose()
	}
	return len(removed)
}

// Discard unregisters and disposes e together with every entry it contains,
// whether or not e is still registered. Entries registered under the same
// identities by someone else are left alone.
func (r *Registry[E]) Discard(e E) int {
	r.mu.Lock()
	removed := r.collect(e, nil)
	r.mu.Unlock()

	if !slices.Contains(removed, e) {
		removed = append(removed, e)
	}
	for _, d := range removed {
		d.Dispose()
	}
	return len(removed)
}

// Rekey moves e from oldIdentity to its current identity. Any other entry
// already registered under the new identity is disposed.
func (r *Registry[E]) Rekey(e E, oldIdentity string) {
	r.mu.Lock()
	if cur, ok := r.entries[oldIdentity]; ok && cur == e {
		delete(r.entries, oldIdentity)
	}
	old, replaced := r.put(e)
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("identity replaced on rekey", "from", oldIdentity, "to", e.Identity())
		old.Dispose()
	}
}

// Len returns the number of registered entries.
func (r *Registry[E]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close disposes every registered entry and empties the registry.
func (r *Registry[E]) Close() {
	r.mu.Lock()
	all := make([]E, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	clear(r.entries)
	r.mu.Unlock()

	for _, e := range all {
		e.Dispose()
	}
}

// put must be called with mu held.
func (r *Registry[E]) put(e E) (old E, replaced bool) {
	id := e.Identity()
	if cur, ok := r.entries[id]; ok && cur != e {
		old, replaced = cur, true
	}
	r.entries[id] = e
	return old, replaced
}

// collect removes e and its contained entries from the map and returns them.
// It must be called with mu held.
func (r *Registry[E]) collect(e E, acc []E) []E {
	id := e.Identity()
	if cur, ok := r.entries[id]; ok && cur == e {
		delete(r.entries, id)
		acc = append(acc, e)
	}
	if c, ok := any(e).(Container[E]); ok {
		for _, child := range c.Contained() {
			acc = r.collect(child, acc)
		}
	}
	return acc
}
