package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newServicesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the available services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			active := a.Browser.Service()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tNAME\tSOURCE\tSTATUS\tORDERS")
			for _, s := range a.Browser.Services() {
				marker := ""
				if s.ID == active {
					marker = "*"
				}
				status := "enabled"
				if !a.Registry.Enabled(s.ID) {
					status = "disabled"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					marker, s.ID, s.Name, s.Provenance, status, strings.Join(s.SearchOrders, ","))
			}
			return w.Flush()
		},
	}
}
