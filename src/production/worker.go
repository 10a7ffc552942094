package production

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/common"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/transport"
)

var (
	ErrMissingConfig  = errors.New("no configuration in context")
	ErrImportRejected = errors.New("import job rejected")
)

// Runs one import job spawned by the background runner. The job is imported by the server at url,
// which checks the key against the job's access key. Returns the job's final status.
func RunImportJob(ctx context.Context, url string, jobID int64, key string) (status protocol.Status, err error) {
	config := common.GetConfig(ctx)
	if config == nil {
		return protocol.StatusNotStarted, ErrMissingConfig
	}

	log := logger.NewSublogger("import-worker").WithField("job", jobID)

	transportConfig := config.Transport
	transportConfig.PeerURL = url
	transportConfig.Path = config.Gateway.Path
	// Imports run until done, the server bounds them
	transportConfig.RequestTimeout = 0

	result := transport.NewClient(&transportConfig).
		Call(ctx, protocol.MethodRunImport, &protocol.RunImportRequest{JobID: jobID, Key: key})
	if result.Failed() {
		return protocol.StatusNotStarted, fmt.Errorf("%w: %s", ErrImportRejected, join(result.Messages))
	}

	resp := new(protocol.RunImportResponse)
	err = result.Decode(resp)
	if err != nil {
		return
	}

	if !resp.Accepted {
		log.WithField("reason", join(resp.Messages)).Error("Import job rejected")
		return resp.Status, fmt.Errorf("%w: %s", ErrImportRejected, join(resp.Messages))
	}

	return resp.Status, nil
}

func join(msgs []messages.Message) string {
	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, " ")
}
