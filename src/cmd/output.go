package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/staging"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/transport"
)

var errFailed = errors.New("operation failed")

func newStagingController() *staging.Controller {
	monitor := monitor_stager.NewMonitor(conf)
	return staging.NewController(conf).
		WithClient(transport.NewClient(&conf.Transport).WithMonitor(monitor)).
		WithMonitor(monitor)
}

// Prints the result for the operator, failed status is an error
func printResult(w io.Writer, out *staging.Result) error {
	for _, msg := range out.Messages {
		if msg.Code != 0 {
			fmt.Fprintf(w, "[%s] %s (code %d)\n", msg.Level, msg.Text, msg.Code)
		} else {
			fmt.Fprintf(w, "[%s] %s\n", msg.Level, msg.Text)
		}
	}
	fmt.Fprintf(w, "batch: %d, status: %d (%s)\n", out.BatchID, out.Status, out.Status.String())

	if out.Status == protocol.StatusFailed {
		return errFailed
	}
	return nil
}

// Reads the batch file. A batch without GUID gets one, written back so later runs reuse it.
func loadBatch(path string) (batch *batches.Batch, err error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return
	}

	batch = new(batches.Batch)
	err = json.Unmarshal(buf, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if batch.GUID != "" {
		return
	}

	batch.GUID = uuid.NewString()
	buf, err = json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return
	}
	err = os.WriteFile(path, buf, 0o600)
	return
}
