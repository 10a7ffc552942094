package cmd

import (
	"github.com/spf13/cobra"
	"github.com/warp-contracts/stager/src/staging"
)

var (
	statusBatchID int64
	statusWait    bool
)

func init() {
	statusCmd.Flags().Int64Var(&statusBatchID, "batch-id", 0, "production id of the batch")
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "poll until the import finishes")
	_ = statusCmd.MarkFlagRequired("batch-id")
	RootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the import status and messages of a batch",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller := newStagingController()

		var out *staging.Result
		if statusWait {
			out, err = controller.WaitForImport(applicationCtx, statusBatchID)
		} else {
			out, err = controller.ImportStatus(applicationCtx, statusBatchID)
		}
		if err != nil {
			return
		}

		return printResult(cmd.OutOrStdout(), out)
	},
}
