package fetch

import (
	"context"
	"sync"

	"cep-admin/internal/api"
)

// Status of a fetch machine
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusRejected
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusPending:
		return "PENDING"
	case StatusResolved:
		return "RESOLVED"
	case StatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Result is a successful response envelope
type Result[R any] struct {
	Status int
	Data   R
}

// Outcome is the settled value of one call. An Outcome with neither
// Result nor Err cancels the request, returning the machine to idle
// without touching the last displayed data.
type Outcome[R any] struct {
	Result *Result[R]
	Err    *api.Error
}

// Call performs the fetch and settles into an Outcome. Implementations
// never return transport errors raw; the api client normalizes them.
type Call[R any] func(ctx context.Context) Outcome[R]

// Query produces the call for the next request. Returning nil gates the
// request off entirely: the machine stays idle and nothing runs.
type Query[R any] func() Call[R]

// Snapshot is a point-in-time copy of the machine state
type Snapshot[R any] struct {
	Status Status
	Result *Result[R]
	Err    *api.Error
}

// Machine drives a query through IDLE -> PENDING -> RESOLVED|REJECTED.
//
// Requests are not fenced: when two requests overlap, whichever call
// settles last overwrites the state, irrespective of start order. Callers
// that need strict ordering must hold off while IsLoading reports true.
// Reset only clears displayed state; an in-flight call still applies when
// it settles.
type Machine[R any] struct {
	mu       sync.Mutex
	query    Query[R]
	onChange func(Snapshot[R])

	status Status
	result *Result[R]
	err    *api.Error
}

// NewMachine creates an idle machine over the given query
func NewMachine[R any](query Query[R]) *Machine[R] {
	return &Machine[R]{query: query}
}

// OnChange registers a hook observing every state transition. The hook
// runs outside the machine lock, on whichever goroutine settled the call.
func (m *Machine[R]) OnChange(fn func(Snapshot[R])) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Snapshot returns the current state
func (m *Machine[R]) Snapshot() Snapshot[R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot[R]{Status: m.status, Result: m.result, Err: m.err}
}

// IsLoading reports whether a request is pending
func (m *Machine[R]) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusPending
}

// Request triggers the query. The returned channel closes once the
// outcome has been applied; for a gated-off query it is closed already.
func (m *Machine[R]) Request(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	call := m.query()
	if call == nil {
		close(done)
		return done
	}

	m.mu.Lock()
	m.status = StatusPending
	snapshot := Snapshot[R]{Status: m.status, Result: m.result, Err: m.err}
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(snapshot)
	}

	go func() {
		defer close(done)
		m.apply(call(ctx))
	}()
	return done
}

// Reset forces the machine back to idle, discarding displayed data and
// error. It does not cancel an in-flight call; a late outcome still
// applies on arrival.
func (m *Machine[R]) Reset() {
	m.mu.Lock()
	m.status = StatusIdle
	m.result = nil
	m.err = nil
	snapshot := Snapshot[R]{Status: m.status}
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(snapshot)
	}
}

func (m *Machine[R]) apply(outcome Outcome[R]) {
	m.mu.Lock()
	switch {
	case outcome.Result == nil && outcome.Err == nil:
		// Cancelled: back to idle, displayed data untouched
		m.status = StatusIdle
	case outcome.Err != nil:
		// Keep the last good result for display alongside the error
		m.status = StatusRejected
		m.err = outcome.Err
	default:
		m.status = StatusResolved
		m.result = outcome.Result
		m.err = nil
	}
	snapshot := Snapshot[R]{Status: m.status, Result: m.result, Err: m.err}
	notify := m.onChange
	m.mu.Unlock()
	if notify != nil {
		notify(snapshot)
	}
}
