package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"cep-admin/internal/api"
	"cep-admin/internal/filter"
	"cep-admin/internal/metrics"
	"cep-admin/internal/watch"
)

var (
	watchInterval time.Duration
	watchPayload  bool
	watchFilters  string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail the event log",
	Long: `Poll the backend's event log and print every new event as it
arrives. Runs until interrupted. When metrics are enabled in the
config, a Prometheus endpoint exposes poll and event counters.

The --filters flag takes a query filter as JSON and suppresses events
whose payload does not match. Matching is evaluated locally against
each payload, so it also works for filters no rule is using yet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, client, err := setup()
		if err != nil {
			return err
		}

		var tree *filter.Tree
		if watchFilters != "" {
			tree, err = filter.Unmarshal([]byte(watchFilters))
			if err != nil {
				return fmt.Errorf("invalid --filters: %w", err)
			}
		}
		cfg.ApplyOverrides("", "", 0, watchInterval)
		defer log.Sync()

		// Metrics endpoint, mirroring the config's metrics section
		var metricsService *metrics.Metrics
		var metricsServer *http.Server
		if cfg.Metrics.Enabled {
			reg := prometheus.NewRegistry()
			metricsService, err = metrics.NewMetrics(reg)
			if err != nil {
				return fmt.Errorf("failed to create metrics service: %w", err)
			}

			mux := http.NewServeMux()
			mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{
				Registry:          reg,
				EnableOpenMetrics: true,
			}))
			metricsServer = &http.Server{
				Addr:    cfg.Metrics.Address,
				Handler: mux,
			}

			go func() {
				log.Info("starting metrics server",
					"address", cfg.Metrics.Address,
					"path", cfg.Metrics.Path)
				if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("metrics server error", "error", err)
				}
			}()
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			log.Info("shutting down watcher", "signal", sig.String())
			cancel()
		}()

		watcher := watch.NewWatcher(client, log, metricsService, watch.Config{
			Interval: cfg.WatchInterval(),
			PageSize: cfg.Lists.PageSize,
		})

		log.Info("watching event log",
			"backend", client.BaseURL(),
			"interval", cfg.WatchInterval().String())

		err = watcher.Run(ctx, func(e api.EventLog) {
			if tree != nil && !tree.IsPassThrough() {
				ok, matchErr := filter.MatchesJSON(tree, e.Payload)
				if matchErr != nil || !ok {
					return
				}
			}
			printEvent(e)
		})

		if metricsServer != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics server shutdown error", "error", err)
			}
		}

		if summary, jsonErr := watcher.Stats().GetStatsJSON(); jsonErr == nil {
			fmt.Println(string(summary))
		}
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

func printEvent(e api.EventLog) {
	line := fmt.Sprintf("%s\t%s\t%s", e.CreatedAt.Format(time.RFC3339), eventRef(e), e.ID)
	if watchPayload && len(e.Payload) > 0 {
		line += "\t" + string(e.Payload)
	}
	fmt.Println(line)
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (0 = use config)")
	watchCmd.Flags().BoolVar(&watchPayload, "payload", false, "print raw event payloads")
	watchCmd.Flags().StringVar(&watchFilters, "filters", "", "only print events whose payload matches this query filter")

	rootCmd.AddCommand(watchCmd)
}
