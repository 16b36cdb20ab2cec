package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cep-admin/internal/api"
)

var eventTypesCmd = &cobra.Command{
	Use:     "eventtypes",
	Aliases: []string{"event-types", "et"},
	Short:   "Manage event types",
}

var eventTypesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List event types",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		page, apiErr := api.List[api.EventType](ctx, client, api.EventTypesPath, listPage, cfg.Lists.PageSize, listSearch)
		if apiErr != nil {
			return apiErr
		}

		rows := make([][]string, 0, len(page.Results))
		for _, et := range page.Results {
			rows = append(rows, []string{et.ID, et.Name, et.URL, et.CreatedAt.Format(time.RFC3339)})
		}
		table([]string{"ID", "NAME", "URL", "CREATED"}, rows)
		return nil
	},
}

var eventTypesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an event type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		body := map[string]string{"name": args[0]}
		created, apiErr := api.Create[api.EventType](ctx, client, api.EventTypesPath, body)
		if apiErr != nil {
			return apiErr
		}

		fmt.Printf("created event type %s (%s)\n", created.Name, created.ID)
		fmt.Printf("ingestion url: %s\n", created.URL)
		return nil
	},
}

var eventTypesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more event types",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		results := client.DeleteMany(ctx, api.EventTypesPath, args, nil)
		return reportDeletes(results)
	},
}

func init() {
	eventTypesListCmd.Flags().IntVar(&listPage, "page", 1, "page to fetch")
	eventTypesListCmd.Flags().StringVar(&listSearch, "search", "", "filter rows by name")

	eventTypesCmd.AddCommand(eventTypesListCmd)
	eventTypesCmd.AddCommand(eventTypesCreateCmd)
	eventTypesCmd.AddCommand(eventTypesDeleteCmd)
	rootCmd.AddCommand(eventTypesCmd)
}
