package cmd

import (
	"github.com/spf13/cobra"
)

var preflightBatchFile string

func init() {
	preflightCmd.Flags().StringVar(&preflightBatchFile, "batch", "", "batch file (JSON)")
	_ = preflightCmd.MarkFlagRequired("batch")
	RootCmd.AddCommand(preflightCmd)
}

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Stores the batch on production and verifies it",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		batch, err := loadBatch(preflightBatchFile)
		if err != nil {
			return
		}

		out, err := newStagingController().Preflight(applicationCtx, batch)
		if err != nil {
			return
		}

		return printResult(cmd.OutOrStdout(), out)
	},
}
