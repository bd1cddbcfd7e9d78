package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/weft"
)

const modulePath = "github.com/weftdb/weft"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the weft version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "weft v%s\nmodule: %s\n", weft.Version, modulePath)
			return nil
		},
	}
}
