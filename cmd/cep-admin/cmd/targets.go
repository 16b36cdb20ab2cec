package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cep-admin/internal/api"
)

var targetHeaders []string

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Manage targets",
}

var targetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		page, apiErr := api.List[api.Target](ctx, client, api.TargetsPath, listPage, cfg.Lists.PageSize, listSearch)
		if apiErr != nil {
			return apiErr
		}

		rows := make([][]string, 0, len(page.Results))
		for _, t := range page.Results {
			rows = append(rows, []string{t.ID, t.Name, t.URL, t.CreatedAt.Format(time.RFC3339)})
		}
		table([]string{"ID", "NAME", "URL", "CREATED"}, rows)
		return nil
	},
}

var targetsCreateCmd = &cobra.Command{
	Use:   "create <name> <url>",
	Short: "Create a webhook target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		headers, err := parseHeaders(targetHeaders)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		body := map[string]interface{}{"name": args[0], "url": args[1]}
		if len(headers) > 0 {
			body["headers"] = headers
		}
		created, apiErr := api.Create[api.Target](ctx, client, api.TargetsPath, body)
		if apiErr != nil {
			return apiErr
		}

		fmt.Printf("created target %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var targetsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more targets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		results := client.DeleteMany(ctx, api.TargetsPath, args, nil)
		return reportDeletes(results)
	},
}

// parseHeaders splits repeated "Key: Value" flags into a header map
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, found := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid header %q, expected \"Key: Value\"", h)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}

func init() {
	targetsListCmd.Flags().IntVar(&listPage, "page", 1, "page to fetch")
	targetsListCmd.Flags().StringVar(&listSearch, "search", "", "filter rows by name")
	targetsCreateCmd.Flags().StringArrayVar(&targetHeaders, "header", nil, "webhook header as \"Key: Value\", repeatable")

	targetsCmd.AddCommand(targetsListCmd)
	targetsCmd.AddCommand(targetsCreateCmd)
	targetsCmd.AddCommand(targetsDeleteCmd)
	rootCmd.AddCommand(targetsCmd)
}
