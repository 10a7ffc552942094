package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/warp-contracts/stager/src/deploy"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/preflight"
	"github.com/warp-contracts/stager/src/protocol"
)

// Decodes the request data before calling f
func handle[In any](f func(ctx context.Context, in *In) (any, error)) Handler {
	return func(ctx context.Context, data json.RawMessage) (any, error) {
		in := new(In)
		err := json.Unmarshal(data, in)
		if err != nil {
			return protocol.Failed(messages.Error(fmt.Sprintf("Malformed request data: %s. Request failed.", err))), nil
		}
		return f(ctx, in)
	}
}

// Remote methods of the production environment
type Controller struct {
	verifier *preflight.Verifier
	deploy   *deploy.Service
}

func NewController(verifier *preflight.Verifier, deploy *deploy.Service) *Controller {
	return &Controller{verifier: verifier, deploy: deploy}
}

// Registers all methods on the server
func (self *Controller) Register(server *Server) *Server {
	return server.
		WithHandler(protocol.MethodStore, handle(self.store)).
		WithHandler(protocol.MethodVerify, handle(self.verify)).
		WithHandler(protocol.MethodImport, handle(self.importBatch)).
		WithHandler(protocol.MethodImportStatus, handle(self.importStatus)).
		WithHandler(protocol.MethodRunImport, handle(self.runImport))
}

func (self *Controller) store(ctx context.Context, in *protocol.StoreRequest) (any, error) {
	return self.verifier.Store(ctx, in.Batch)
}

func (self *Controller) verify(ctx context.Context, in *protocol.VerifyRequest) (any, error) {
	return self.verifier.Verify(ctx, in.BatchID)
}

func (self *Controller) importBatch(ctx context.Context, in *protocol.ImportRequest) (any, error) {
	return self.deploy.Import(ctx, in)
}

func (self *Controller) importStatus(ctx context.Context, in *protocol.ImportStatusRequest) (any, error) {
	return self.deploy.ImportStatus(ctx, in.BatchID)
}

func (self *Controller) runImport(ctx context.Context, in *protocol.RunImportRequest) (any, error) {
	return self.deploy.RunJob(ctx, in.JobID, in.Key)
}
