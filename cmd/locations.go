package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunwrangle/sunwrangle-cli/internal/regions"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List the monitored capital cities and their CKAN packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range regions.Capitals() {
			note := ""
			if c.FileLabel != c.City {
				note = fmt.Sprintf(" (files published as %q)", c.FileLabel)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "- %s, %s (%s): %s%s\n", c.City, c.StateName, c.StateCode, c.Package, note)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}
