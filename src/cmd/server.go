package cmd

import (
	"github.com/spf13/cobra"
	"github.com/warp-contracts/stager/src/production"
	"github.com/warp-contracts/stager/src/utils/logger"
)

func init() {
	RootCmd.AddCommand(serverCmd)
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Runs the production side: RPC endpoint for staging, pre-flight, imports and monitoring",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := production.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished server command")
		return
	},
}
