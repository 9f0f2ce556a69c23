package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the search history of the active service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			match, _ := cmd.Flags().GetString("match")
			limit, _ := cmd.Flags().GetInt("limit")

			var entries []string
			if match != "" {
				entries = a.Browser.Suggestions(match, limit)
			} else {
				entries = a.Browser.History()
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
			}

			if len(entries) == 0 {
				cmd.Println("No searches yet")
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), entry)
			}
			return nil
		},
	}
	cmd.Flags().StringP("match", "m", "", "only show entries fuzzy-matching this text")
	cmd.Flags().IntP("limit", "n", 0, "maximum number of entries (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <query>",
		Short: "Remove one search from the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()
			return a.Browser.RemoveSearch(strings.Join(args, " "))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the search history of the active service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()
			return a.Browser.ClearHistory()
		},
	})
	return cmd
}
