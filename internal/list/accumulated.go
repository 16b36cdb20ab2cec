package list

import (
	"context"
	"sync"
	"time"

	"cep-admin/internal/api"
	"cep-admin/internal/fetch"
)

// Accumulated is the append-only search view backing autocomplete
// pickers. Successive successful responses append their rows; changing
// the search text clears the accumulation immediately and re-queries
// after a debounce delay, provided the text reaches the minimum length.
type Accumulated[E any] struct {
	mu        sync.Mutex
	search    string
	rows      []E
	timer     *time.Timer
	closed    bool
	pageSize  int
	minLength int
	debounce  time.Duration

	machine *fetch.Machine[api.Page[E]]
}

// NewAccumulated creates an accumulating view over the source. Queries
// always request the first page; minLength 0 means every search fires.
func NewAccumulated[E any](source Source[E], pageSize, minLength int, debounce time.Duration) *Accumulated[E] {
	a := &Accumulated[E]{
		pageSize:  pageSize,
		minLength: minLength,
		debounce:  debounce,
	}
	a.machine = fetch.NewMachine(func() fetch.Call[api.Page[E]] {
		a.mu.Lock()
		search := a.search
		a.mu.Unlock()
		return func(ctx context.Context) fetch.Outcome[api.Page[E]] {
			return source(ctx, 1, a.pageSize, search)
		}
	})
	a.machine.OnChange(func(snap fetch.Snapshot[api.Page[E]]) {
		if snap.Status != fetch.StatusResolved || snap.Result == nil {
			return
		}
		a.mu.Lock()
		a.rows = append(a.rows, snap.Result.Data.Results...)
		a.mu.Unlock()
	})
	return a
}

// SetSearch updates the search text. The accumulation clears right away;
// the query fires only after the debounce window passes without another
// keystroke, and only when the text is long enough.
func (a *Accumulated[E]) SetSearch(ctx context.Context, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}

	a.search = text
	a.rows = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	if len(text) < a.minLength {
		return
	}
	a.timer = time.AfterFunc(a.debounce, func() {
		a.machine.Request(ctx)
	})
}

// Search returns the current search text
func (a *Accumulated[E]) Search() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.search
}

// Rows returns a copy of the accumulated rows
func (a *Accumulated[E]) Rows() []E {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]E, len(a.rows))
	copy(out, a.rows)
	return out
}

// IsLoading reports whether a fetch is pending
func (a *Accumulated[E]) IsLoading() bool {
	return a.machine.IsLoading()
}

// Snapshot exposes the underlying fetch state
func (a *Accumulated[E]) Snapshot() fetch.Snapshot[api.Page[E]] {
	return a.machine.Snapshot()
}

// Close cancels any scheduled query. Late in-flight responses still
// apply, matching the fetch machine's last-write-wins policy.
func (a *Accumulated[E]) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
