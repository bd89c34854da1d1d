package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the countyctl release.
const Version = "0.1.0"

const modulePath = "github.com/leoashcraft/County-Connect-sub009"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the countyctl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "countyctl v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
