package watch

import (
	"context"
	"time"

	"cep-admin/internal/api"
	"cep-admin/internal/logger"
	"cep-admin/internal/metrics"
	"cep-admin/internal/stats"
)

// Watcher polls the event log and reports entries it has not seen
// before. It is a read-only tail: the backend keeps owning the log.
type Watcher struct {
	client   *api.Client
	logger   *logger.Logger
	metrics  *metrics.Metrics
	stats    *stats.WatchStats
	interval time.Duration
	pageSize int

	seen map[string]bool
}

// Config holds watcher construction parameters
type Config struct {
	Interval time.Duration
	PageSize int
}

// NewWatcher creates a watcher. The metrics collector is optional.
func NewWatcher(client *api.Client, log *logger.Logger, m *metrics.Metrics, cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return &Watcher{
		client:   client,
		logger:   log,
		metrics:  m,
		stats:    stats.NewWatchStats(),
		interval: cfg.Interval,
		pageSize: cfg.PageSize,
		seen:     make(map[string]bool),
	}
}

// Stats returns the watcher's statistics collector
func (w *Watcher) Stats() *stats.WatchStats {
	return w.stats
}

// Run polls until the context is cancelled, invoking onEvent for every
// event log entry not reported before. The first poll reports the
// current page as-is.
func (w *Watcher) Run(ctx context.Context, onEvent func(api.EventLog)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.poll(ctx, onEvent)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx, onEvent)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, onEvent func(api.EventLog)) {
	page, apiErr := api.List[api.EventLog](ctx, w.client, api.EventLogsPath, 1, w.pageSize, "")
	if apiErr != nil {
		w.stats.RecordError()
		if w.metrics != nil {
			w.metrics.SetWatchConnected(false)
		}
		w.logger.Error("event log poll failed",
			"errorCode", apiErr.ErrorCode,
			"error", apiErr.ErrorMessage)
		return
	}

	// Pages arrive newest first; report fresh entries oldest first
	fresh := make([]api.EventLog, 0, len(page.Results))
	for i := len(page.Results) - 1; i >= 0; i-- {
		event := page.Results[i]
		if w.seen[event.ID] {
			continue
		}
		w.seen[event.ID] = true
		fresh = append(fresh, event)
	}

	w.stats.RecordPoll(uint64(len(fresh)))
	if w.metrics != nil {
		w.metrics.SetWatchConnected(true)
		w.metrics.IncWatchEvents(len(fresh))
	}

	for _, event := range fresh {
		onEvent(event)
	}

	if len(fresh) > 0 {
		w.logger.Debug("event log poll completed",
			"new", len(fresh),
			"pageSize", len(page.Results))
	}
}
