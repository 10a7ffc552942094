package cmd

import (
	"github.com/spf13/cobra"
	"github.com/warp-contracts/stager/src/production"
	"github.com/warp-contracts/stager/src/utils/logger"
)

var (
	workerURL   string
	workerJobID int64
	workerKey   string
)

func init() {
	importWorkerCmd.Flags().StringVar(&workerURL, "url", "http://127.0.0.1:4000", "gateway of the server that owns the job")
	importWorkerCmd.Flags().Int64Var(&workerJobID, "job", 0, "import job id")
	importWorkerCmd.Flags().StringVar(&workerKey, "key", "", "access key of the job")
	_ = importWorkerCmd.MarkFlagRequired("job")
	_ = importWorkerCmd.MarkFlagRequired("key")
	RootCmd.AddCommand(importWorkerCmd)
}

var importWorkerCmd = &cobra.Command{
	Use:    "import-worker",
	Short:  "Imports one job, started by the server in background import mode",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		status, err := production.RunImportJob(applicationCtx, workerURL, workerJobID, workerKey)
		if err != nil {
			return
		}

		logger.NewSublogger("root-cmd").WithField("job", workerJobID).WithField("status", status.String()).Info("Import job finished")
		return
	},
}
