package list

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cep-admin/internal/api"
	"cep-admin/internal/fetch"
)

const testDebounce = 30 * time.Millisecond

// searchSource returns one row per search and counts queries
type searchSource struct {
	mu      sync.Mutex
	queries []string
}

func (s *searchSource) source() Source[string] {
	return func(ctx context.Context, page, pageSize int, search string) fetch.Outcome[api.Page[string]] {
		s.mu.Lock()
		s.queries = append(s.queries, search)
		s.mu.Unlock()
		return fetch.Outcome[api.Page[string]]{
			Result: &fetch.Result[api.Page[string]]{Status: 200, Data: api.Page[string]{Results: []string{"match:" + search}}},
		}
	}
}

func (s *searchSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func (s *searchSource) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func TestAccumulatedShortSearchFiresNothing(t *testing.T) {
	src := &searchSource{}
	a := NewAccumulated(src.source(), 10, 3, testDebounce)
	defer a.Close()

	a.SetSearch(context.Background(), "t")
	a.SetSearch(context.Background(), "te")

	time.Sleep(5 * testDebounce)
	assert.Zero(t, src.count(), "searches under the minimum length must not query")
	assert.Empty(t, a.Rows())
}

func TestAccumulatedDebounceFiresOnce(t *testing.T) {
	src := &searchSource{}
	a := NewAccumulated(src.source(), 10, 3, testDebounce)
	defer a.Close()

	// Rapid keystrokes: only the final string queries, once
	a.SetSearch(context.Background(), "tem")
	a.SetSearch(context.Background(), "temp")
	a.SetSearch(context.Background(), "tempe")

	assert.Eventually(t, func() bool { return src.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"tempe"}, src.all())

	assert.Eventually(t, func() bool {
		rows := a.Rows()
		return len(rows) == 1 && rows[0] == "match:tempe"
	}, 2*time.Second, 10*time.Millisecond)

	// No further queries after settling
	time.Sleep(5 * testDebounce)
	assert.Equal(t, 1, src.count())
}

func TestAccumulatedSearchChangeClearsRows(t *testing.T) {
	src := &searchSource{}
	a := NewAccumulated(src.source(), 10, 3, testDebounce)
	defer a.Close()

	a.SetSearch(context.Background(), "alpha")
	assert.Eventually(t, func() bool { return len(a.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)

	// The clear happens synchronously, before the next response lands
	a.SetSearch(context.Background(), "beta")
	assert.Empty(t, a.Rows())

	assert.Eventually(t, func() bool {
		rows := a.Rows()
		return len(rows) == 1 && rows[0] == "match:beta"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAccumulatedAppendsAcrossResponses(t *testing.T) {
	src := &searchSource{}
	a := NewAccumulated(src.source(), 10, 0, testDebounce)
	defer a.Close()

	a.SetSearch(context.Background(), "x")
	assert.Eventually(t, func() bool { return len(a.Rows()) == 1 }, 2*time.Second, 10*time.Millisecond)

	// A second resolution for the same search appends rather than replaces
	<-a.machine.Request(context.Background())
	rows := a.Rows()
	assert.Equal(t, []string{"match:x", "match:x"}, rows)
}

func TestAccumulatedCloseCancelsPendingQuery(t *testing.T) {
	src := &searchSource{}
	a := NewAccumulated(src.source(), 10, 0, testDebounce)

	a.SetSearch(context.Background(), "abc")
	a.Close()

	time.Sleep(5 * testDebounce)
	assert.Zero(t, src.count(), "closing must cancel the scheduled query")

	// SetSearch after Close is ignored
	a.SetSearch(context.Background(), "later")
	time.Sleep(5 * testDebounce)
	assert.Zero(t, src.count())
}
