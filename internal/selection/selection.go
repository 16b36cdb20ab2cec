package selection

import (
	"sync"
)

// Entity is anything selectable by id
type Entity interface {
	EntityID() string
}

// Tracker maintains an ordered selection over a backing list. Entries
// are keyed by entity id, so re-fetching a list with the same ids keeps
// a selection meaningful until the list is explicitly rebound.
type Tracker[E Entity] struct {
	mu     sync.Mutex
	list   []E
	order  []E
	keys   map[string]bool
	notify func([]E)
}

// NewTracker creates an empty tracker. The notify callback, when set,
// observes every new selection list; it runs synchronously before the
// selection commits, so a callback reading the tracker still sees the
// previous state.
func NewTracker[E Entity](notify func([]E)) *Tracker[E] {
	return &Tracker[E]{
		keys:   map[string]bool{},
		notify: notify,
	}
}

// Rebind swaps the backing list and clears the selection. A new list is
// a new version of the world; prior selections no longer apply.
func (t *Tracker[E]) Rebind(list []E) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.list = list
	t.order = nil
	t.keys = map[string]bool{}
}

// SelectOne adds or removes one element. Deselecting an element that is
// not selected notifies with the unchanged selection rather than
// failing. Insertion order is preserved.
func (t *Tracker[E]) SelectOne(checked bool, e E) {
	t.mu.Lock()
	id := e.EntityID()

	var next []E
	switch {
	case checked && !t.keys[id]:
		next = make([]E, 0, len(t.order)+1)
		next = append(next, t.order...)
		next = append(next, e)
	case !checked && t.keys[id]:
		next = make([]E, 0, len(t.order)-1)
		for _, sel := range t.order {
			if sel.EntityID() != id {
				next = append(next, sel)
			}
		}
	default:
		next = make([]E, len(t.order))
		copy(next, t.order)
	}
	notify := t.notify
	t.mu.Unlock()

	// Notify first, then commit
	if notify != nil {
		notify(append([]E(nil), next...))
	}

	t.mu.Lock()
	t.order = next
	keys := make(map[string]bool, len(next))
	for _, sel := range next {
		keys[sel.EntityID()] = true
	}
	t.keys = keys
	t.mu.Unlock()
}

// SelectAll selects every element of the backing list, or clears the
// selection. A nil backing list selects nothing.
func (t *Tracker[E]) SelectAll(checked bool) {
	t.mu.Lock()
	next := []E{}
	if checked {
		next = append(next, t.list...)
	}
	notify := t.notify
	t.mu.Unlock()

	if notify != nil {
		notify(append([]E(nil), next...))
	}

	t.mu.Lock()
	t.order = next
	keys := make(map[string]bool, len(next))
	for _, sel := range next {
		keys[sel.EntityID()] = true
	}
	t.keys = keys
	t.mu.Unlock()
}

// Selected returns the current selection in insertion order
func (t *Tracker[E]) Selected() []E {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]E(nil), t.order...)
}

// IsSelected reports whether the entity with the given id is selected
func (t *Tracker[E]) IsSelected(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.keys[id]
}

// Count returns the number of selected entities
func (t *Tracker[E]) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}
