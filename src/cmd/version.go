package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp-contracts/stager/src/utils/build_info"
)

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		fmt.Fprintln(cmd.OutOrStdout(), build_info.Version)
		return
	},
}
