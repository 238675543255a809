package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gofhir/qconvert/pkg/extension"
	"github.com/gofhir/qconvert/pkg/registry"
)

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List the supported FHIR versions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tRELEASE\tPROFILE\tEXTENSION PREFIX")
			for _, e := range registry.Default().Entries() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Version, e.Version.Release(), e.ProfileURL, extension.Prefix(e.Version))
			}
			return tw.Flush()
		},
	}
}
