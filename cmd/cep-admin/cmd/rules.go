package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cep-admin/internal/api"
	"cep-admin/internal/filter"
)

var (
	ruleType        string
	ruleEventType   string
	ruleTarget      string
	ruleFilters     string
	ruleSkipMatches bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		page, apiErr := api.List[api.Rule](ctx, client, api.RulesPath, listPage, cfg.Lists.PageSize, listSearch)
		if apiErr != nil {
			return apiErr
		}

		rows := make([][]string, 0, len(page.Results))
		for _, r := range page.Results {
			rows = append(rows, []string{
				r.ID, r.Name, r.Type,
				ruleRef(r.EventTypeName, r.EventTypeID),
				ruleRef(r.TargetName, r.TargetID),
				r.CreatedAt.Format(time.RFC3339),
			})
		}
		table([]string{"ID", "NAME", "TYPE", "EVENT TYPE", "TARGET", "CREATED"}, rows)
		return nil
	},
}

var rulesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a rule",
	Long: `Create a rule wiring an event type to a target. The --filters flag
takes the rule's query filter as JSON, for example:

  '{"temperature":{"_gt":20},"_or":[{"status":"open"},{"status":"held"}]}'

The filter is validated and canonicalized before submission. Omitting
--filters creates a pass-through rule that matches every event.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, client, err := setup()
		if err != nil {
			return err
		}

		filters, err := canonicalFilters(ruleFilters)
		if err != nil {
			return fmt.Errorf("invalid --filters: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		body := api.RuleCreate{
			Name:                      args[0],
			Type:                      ruleType,
			EventTypeID:               ruleEventType,
			TargetID:                  ruleTarget,
			SkipOnConsecutivesMatches: ruleSkipMatches,
			Filters:                   filters,
		}
		created, apiErr := api.Create[api.Rule](ctx, client, api.RulesPath, body)
		if apiErr != nil {
			return apiErr
		}

		log.Debug("rule created", "id", created.ID, "filters", string(filters))
		fmt.Printf("created rule %s (%s)\n", created.Name, created.ID)
		return nil
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete one or more rules",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		results := client.DeleteMany(ctx, api.RulesPath, args, nil)
		return reportDeletes(results)
	},
}

// canonicalFilters parses the raw filter JSON into a tree and marshals it
// back, so the backend always receives the canonical representation
func canonicalFilters(raw string) ([]byte, error) {
	if raw == "" {
		return []byte("{}"), nil
	}
	tree, err := filter.Unmarshal([]byte(raw))
	if err != nil {
		return nil, err
	}
	return filter.Marshal(tree)
}

func ruleRef(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func init() {
	rulesListCmd.Flags().IntVar(&listPage, "page", 1, "page to fetch")
	rulesListCmd.Flags().StringVar(&listSearch, "search", "", "filter rows by name")

	rulesCreateCmd.Flags().StringVar(&ruleType, "type", api.RuleTypeRealtime, "rule type (realtime, sliding, hopping, tumbling)")
	rulesCreateCmd.Flags().StringVar(&ruleEventType, "event-type", "", "event type id the rule listens on")
	rulesCreateCmd.Flags().StringVar(&ruleTarget, "target", "", "target id invoked on match")
	rulesCreateCmd.Flags().StringVar(&ruleFilters, "filters", "", "query filter as JSON")
	rulesCreateCmd.Flags().BoolVar(&ruleSkipMatches, "skip-consecutives", false, "skip consecutive matches of the same event")
	rulesCreateCmd.MarkFlagRequired("event-type")
	rulesCreateCmd.MarkFlagRequired("target")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCreateCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
	rootCmd.AddCommand(rulesCmd)
}
