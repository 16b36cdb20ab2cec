package list

import (
	"context"
	"sync"

	"cep-admin/internal/api"
	"cep-admin/internal/fetch"
)

// Paginated is the page-replacement list view: it tracks page, page size
// and search text, re-querying on every change, and each resolved page
// replaces the previous rows entirely.
type Paginated[E any] struct {
	mu       sync.Mutex
	page     int
	pageSize int
	search   string

	machine *fetch.Machine[api.Page[E]]
}

// NewPaginated creates a paginated view over the source, starting at
// page 1. Nothing is fetched until the first Request or Set call.
func NewPaginated[E any](source Source[E], pageSize int) *Paginated[E] {
	p := &Paginated[E]{page: 1, pageSize: pageSize}
	p.machine = fetch.NewMachine(func() fetch.Call[api.Page[E]] {
		p.mu.Lock()
		page, size, search := p.page, p.pageSize, p.search
		p.mu.Unlock()
		return func(ctx context.Context) fetch.Outcome[api.Page[E]] {
			return source(ctx, page, size, search)
		}
	})
	return p
}

// Request issues a fetch with the current parameters
func (p *Paginated[E]) Request(ctx context.Context) <-chan struct{} {
	return p.machine.Request(ctx)
}

// SetPage moves to the given page and re-queries
func (p *Paginated[E]) SetPage(ctx context.Context, page int) <-chan struct{} {
	p.mu.Lock()
	if page < 1 {
		page = 1
	}
	p.page = page
	p.mu.Unlock()
	return p.machine.Request(ctx)
}

// SetPageSize changes the page size and re-queries. The current page is
// deliberately kept.
func (p *Paginated[E]) SetPageSize(ctx context.Context, size int) <-chan struct{} {
	p.mu.Lock()
	if size > 0 {
		p.pageSize = size
	}
	p.mu.Unlock()
	return p.machine.Request(ctx)
}

// SetSearch changes the filter text and re-queries
func (p *Paginated[E]) SetSearch(ctx context.Context, text string) <-chan struct{} {
	p.mu.Lock()
	p.search = text
	p.mu.Unlock()
	return p.machine.Request(ctx)
}

// Page returns the current page number
func (p *Paginated[E]) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// PageSize returns the current page size
func (p *Paginated[E]) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

// Search returns the current filter text
func (p *Paginated[E]) Search() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.search
}

// Rows returns the rows of the last resolved page
func (p *Paginated[E]) Rows() []E {
	snap := p.machine.Snapshot()
	if snap.Result == nil {
		return nil
	}
	return snap.Result.Data.Results
}

// HasNext reports whether the backend advertised a following page
func (p *Paginated[E]) HasNext() bool {
	snap := p.machine.Snapshot()
	return snap.Result != nil && snap.Result.Data.Next != ""
}

// HasPrev reports whether the backend advertised a preceding page
func (p *Paginated[E]) HasPrev() bool {
	snap := p.machine.Snapshot()
	return snap.Result != nil && snap.Result.Data.Prev != ""
}

// IsLoading reports whether a fetch is pending
func (p *Paginated[E]) IsLoading() bool {
	return p.machine.IsLoading()
}

// Snapshot exposes the underlying fetch state
func (p *Paginated[E]) Snapshot() fetch.Snapshot[api.Page[E]] {
	return p.machine.Snapshot()
}
