package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cep-admin/internal/api"
	"cep-admin/internal/schema"
)

var eventLogsPayload bool

var eventLogsCmd = &cobra.Command{
	Use:     "eventlogs",
	Aliases: []string{"events"},
	Short:   "Inspect ingested events",
}

var eventLogsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		page, apiErr := api.List[api.EventLog](ctx, client, api.EventLogsPath, listPage, cfg.Lists.PageSize, listSearch)
		if apiErr != nil {
			return apiErr
		}

		if eventLogsPayload {
			for _, e := range page.Results {
				fmt.Printf("%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), eventRef(e), string(e.Payload))
			}
			return nil
		}

		rows := make([][]string, 0, len(page.Results))
		for _, e := range page.Results {
			rows = append(rows, []string{e.ID, eventRef(e), e.RequestID, e.CreatedAt.Format(time.RFC3339)})
		}
		table([]string{"ID", "EVENT TYPE", "REQUEST", "CREATED"}, rows)
		return nil
	},
}

var eventLogsFieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Infer payload fields from the most recent event",
	Long: `Fetch the most recent ingested event and print the payload
fields inferred from it, with their detected types. Useful to know
which fields a rule filter can reference. Use --search to pick the
event type to sample.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		page, apiErr := api.List[api.EventLog](ctx, client, api.EventLogsPath, 1, 1, listSearch)
		if apiErr != nil {
			return apiErr
		}
		if len(page.Results) == 0 {
			return fmt.Errorf("no events ingested yet")
		}

		sample := page.Results[0]
		fields := schema.FieldsFromSample(sample.Payload)
		if fields == nil {
			return fmt.Errorf("payload of event %s has no classifiable fields", sample.ID)
		}

		fmt.Printf("sampled event %s (%s)\n", sample.ID, eventRef(sample))
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Name, string(f.Type)})
		}
		table([]string{"FIELD", "TYPE"}, rows)
		return nil
	},
}

func eventRef(e api.EventLog) string {
	if e.EventTypeName != "" {
		return e.EventTypeName
	}
	return e.EventTypeID
}

func init() {
	eventLogsListCmd.Flags().IntVar(&listPage, "page", 1, "page to fetch")
	eventLogsListCmd.Flags().StringVar(&listSearch, "search", "", "filter rows by event type name")
	eventLogsListCmd.Flags().BoolVar(&eventLogsPayload, "payload", false, "print raw event payloads")

	eventLogsFieldsCmd.Flags().StringVar(&listSearch, "search", "", "filter the sampled event by event type name")

	eventLogsCmd.AddCommand(eventLogsListCmd)
	eventLogsCmd.AddCommand(eventLogsFieldsCmd)
	rootCmd.AddCommand(eventLogsCmd)
}
