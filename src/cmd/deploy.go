package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/warp-contracts/stager/src/protocol"
)

var (
	deployBatchFile  string
	deployBatchID    int64
	deployAutoImport bool
	deployWait       bool
)

func init() {
	deployCmd.Flags().StringVar(&deployBatchFile, "batch", "", "batch file (JSON)")
	deployCmd.Flags().Int64Var(&deployBatchID, "batch-id", 0, "production id of a batch that passed pre-flight")
	deployCmd.Flags().BoolVar(&deployAutoImport, "auto-import", true, "import right away, otherwise only store the batch")
	deployCmd.Flags().BoolVar(&deployWait, "wait", false, "poll until the import finishes")
	deployCmd.MarkFlagsMutuallyExclusive("batch", "batch-id")
	RootCmd.AddCommand(deployCmd)
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Sends the batch to production for import",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		req := &protocol.ImportRequest{BatchID: deployBatchID, AutoImport: &deployAutoImport}

		switch {
		case deployBatchFile != "":
			req.Batch, err = loadBatch(deployBatchFile)
			if err != nil {
				return
			}
		case deployBatchID <= 0:
			return errors.New("either --batch or --batch-id is required")
		}

		controller := newStagingController()
		out, err := controller.Deploy(applicationCtx, req)
		if err != nil {
			return
		}

		if deployWait && deployAutoImport && !out.Status.IsTerminal() {
			out, err = controller.WaitForImport(applicationCtx, out.BatchID)
			if err != nil {
				return
			}
		}

		return printResult(cmd.OutOrStdout(), out)
	},
}
