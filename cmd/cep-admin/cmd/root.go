package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cep-admin/config"
	"cep-admin/internal/api"
	"cep-admin/internal/logger"
)

var (
	configFile string
	baseURL    string
	apiKey     string
	pageSize   int

	// list flags shared by the entity list subcommands
	listPage   int
	listSearch string
)

var rootCmd = &cobra.Command{
	Use:   "cep-admin",
	Short: "Administration console for a CEP backend",
	Long:  `cep-admin browses, creates and deletes the event types, targets and rules of a Complex Event Processing backend, inspects its event logs, and builds rule query filters.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "CEP backend base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for gated backends")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 0, "rows per page (0 = use config)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration from the config file, if
// any, with flag overrides applied on top
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		if baseURL == "" {
			return nil, fmt.Errorf("--base-url or --config required")
		}
		cfg = &config.Config{API: config.APIConfig{BaseURL: baseURL}}
		cfg.SetDefaults()
	}

	cfg.ApplyOverrides(baseURL, apiKey, pageSize, 0)
	return cfg, nil
}

// setup wires the client stack shared by every command
func setup() (*config.Config, *logger.Logger, *api.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, log, api.NewClient(cfg, log, nil), nil
}

// table prints rows in aligned columns
func table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

// reportDeletes prints the per-id outcome of a batch delete and returns
// an error when any deletion was rejected
func reportDeletes(results []api.DeleteResult) error {
	rejected := 0
	for _, r := range results {
		if r.Status == api.Deleted {
			fmt.Printf("%s\tdeleted\n", r.ID)
			continue
		}
		rejected++
		fmt.Printf("%s\trejected: %s\n", r.ID, r.Err.Error())
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d deletions rejected", rejected, len(results))
	}
	return nil
}
