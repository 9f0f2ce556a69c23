package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tubular/internal/domain"
)

func newSubscriptionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List the signed-in user's YouTube subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			pages, _ := cmd.Flags().GetInt("pages")
			users := a.Browser.Users()
			items, err := collect(cmd.Context(), users, func() { a.Browser.ListSubscriptions(users) }, pages)
			if len(items) > 0 {
				if ferr := printItems(cmd, items); ferr != nil {
					return ferr
				}
			}
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntP("pages", "p", 1, "number of pages to load")
	cmd.Flags().StringP("output", "o", "text", "output format: text or json")

	cmd.AddCommand(&cobra.Command{
		Use:   "check <channel-id>",
		Short: "Tell whether the signed-in user is subscribed to a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			if !a.Config.IsSignedIn() {
				return fmt.Errorf("%w: run tubular login with an access token first", domain.ErrAuthFailed)
			}
			id, ok, err := a.Browser.SubscriptionID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not subscribed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscribed (%s)\n", id)
			return nil
		},
	})
	return cmd
}
