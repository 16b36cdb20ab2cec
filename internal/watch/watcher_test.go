package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cep-admin/config"
	"cep-admin/internal/api"
	"cep-admin/internal/logger"
)

type logServer struct {
	mu     sync.Mutex
	events []api.EventLog
	fail   bool
}

func (s *logServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		// Newest first, like the backend
		page := api.Page[api.EventLog]{}
		for i := len(s.events) - 1; i >= 0; i-- {
			page.Results = append(page.Results, s.events[i])
		}
		json.NewEncoder(w).Encode(page)
	})
}

func (s *logServer) push(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, api.EventLog{ID: id, Payload: json.RawMessage(`{"temp":20}`), CreatedAt: time.Now()})
}

func newWatchClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{API: config.APIConfig{BaseURL: server.URL}}
	cfg.SetDefaults()
	return api.NewClient(cfg, logger.NewNop(), nil)
}

func TestWatcherReportsNewEventsOnce(t *testing.T) {
	backend := &logServer{}
	backend.push("e1")
	backend.push("e2")

	client := newWatchClient(t, backend.handler())
	w := NewWatcher(client, logger.NewNop(), nil, Config{Interval: 20 * time.Millisecond, PageSize: 10})

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(e api.EventLog) {
		mu.Lock()
		got = append(got, e.ID)
		mu.Unlock()
	})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	backend.push("e3")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"e1", "e2", "e3"}, got, "oldest first, each event exactly once")
	mu.Unlock()

	assert.GreaterOrEqual(t, w.Stats().GetStats()["polls"], uint64(1))
	assert.Equal(t, uint64(3), w.Stats().GetStats()["events_seen"])
}

func TestWatcherRecordsPollErrors(t *testing.T) {
	backend := &logServer{fail: true}
	client := newWatchClient(t, backend.handler())
	w := NewWatcher(client, logger.NewNop(), nil, Config{Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(e api.EventLog) {
		t.Errorf("no events expected, got %s", e.ID)
	})

	require.Eventually(t, func() bool {
		return w.Stats().GetStats()["errors"].(uint64) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	backend := &logServer{}
	client := newWatchClient(t, backend.handler())
	w := NewWatcher(client, logger.NewNop(), nil, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(api.EventLog) {})
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}
