package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tubular/internal/tui"
)

func newBrowseCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [query]",
		Short: "Open the terminal browser",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.runBrowse,
	}
	cmd.Flags().String("order", "", "search order for the initial query")
	return cmd
}

func (c *cli) runBrowse(cmd *cobra.Command, args []string) error {
	a, err := c.open()
	if err != nil {
		return err
	}
	defer c.close()

	order, _ := cmd.Flags().GetString("order")
	c.logger.Info("starting TUI", "service", a.Browser.Service())
	if err := tui.Run(a.Browser, tui.Options{Query: strings.Join(args, " "), Order: order}, c.logger); err != nil {
		c.logger.Error("TUI error", "error", err)
		return err
	}
	c.logger.Info("shutting down")
	return nil
}
