package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Probe the backend version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, client, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout())
		defer cancel()

		required, apiErr := client.RequiresAPIKey(ctx)
		if apiErr != nil {
			return apiErr
		}

		info, apiErr := client.Version(ctx)
		if apiErr != nil {
			return apiErr
		}

		fmt.Printf("backend:  %s\n", client.BaseURL())
		fmt.Printf("version:  %s\n", info.Version)
		fmt.Printf("api key:  required=%t\n", required)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
