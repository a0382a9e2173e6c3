package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your recorded matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchListResult

			if err := client.Get(fmt.Sprintf("/api/v1/matches?limit=%d", limit), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum matches to show")

	return cmd
}
