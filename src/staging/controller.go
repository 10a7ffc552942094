package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/monitoring"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/task"
	"github.com/warp-contracts/stager/src/utils/transport"
	"go.uber.org/ratelimit"
)

var (
	ErrTooManyRounds = errors.New("pre-flight did not finish")
	errNotFinished   = errors.New("import not finished")
)

// Sends calls to the production environment
type Caller interface {
	Call(ctx context.Context, method string, in any) *transport.Result
}

// Result of a staging side operation
type Result struct {
	protocol.Response
	BatchID int64 `json:"batch_id"`
}

// Staging side of the protocol: drives pre-flight, deploys and polls import status
type Controller struct {
	log     *logrus.Entry
	config  *config.Staging
	monitor monitoring.Monitor
	client  Caller
	limiter ratelimit.Limiter
}

func NewController(config *config.Config) (self *Controller) {
	self = new(Controller)
	self.log = logger.NewSublogger("staging")
	self.config = &config.Staging

	pollsPerSecond := config.Staging.PollsPerSecond
	if pollsPerSecond <= 0 {
		pollsPerSecond = 1
	}
	self.limiter = ratelimit.New(pollsPerSecond)
	self.monitor = monitor_stager.NewMonitor(config)

	return
}

func (self *Controller) WithClient(v Caller) *Controller {
	self.client = v
	return self
}

func (self *Controller) WithMonitor(v monitoring.Monitor) *Controller {
	self.monitor = v
	return self
}

// Performs the call and decodes the polled response. Transport failures become a failed response.
func (self *Controller) call(ctx context.Context, method string, in any, allowed ...string) (out *Result, err error) {
	result := self.client.Call(ctx, method, in)
	if result.Failed() {
		return &Result{Response: *protocol.Failed(result.Messages...)}, nil
	}

	out = new(Result)
	extra, err := decodeStrict(result.Data, &out.Response, allowed...)
	if err != nil {
		if errors.Is(err, ErrContractViolation) {
			self.monitor.GetReport().Staging.Errors.ContractViolation.Inc()
		}
		self.log.WithError(err).WithField("method", method).Error("Unexpected response")
		return nil, err
	}

	if raw, ok := extra["batch_id"]; ok {
		err = json.Unmarshal(raw, &out.BatchID)
		if err != nil {
			return nil, err
		}
	}
	return
}

// Stores the batch on production and verifies it category by category
func (self *Controller) Preflight(ctx context.Context, batch *batches.Batch) (out *Result, err error) {
	stored, err := self.call(ctx, protocol.MethodStore, protocol.StoreRequest{Batch: batch}, "batch_id")
	if err != nil {
		return
	}
	if stored.Status == protocol.StatusFailed || stored.BatchID == 0 {
		stored.Status = protocol.StatusFailed
		return stored, nil
	}

	log := self.log.WithField("batch_id", stored.BatchID)
	log.Info("Batch stored, verifying")

	for round := 0; round < self.config.MaxVerifyRounds; round++ {
		self.limiter.Take()

		out, err = self.call(ctx, protocol.MethodVerify, protocol.VerifyRequest{BatchID: stored.BatchID})
		if err != nil {
			return
		}
		out.BatchID = stored.BatchID

		log.WithField("round", round).WithField("status", out.Status.String()).Debug("Verified")

		if out.Status.IsTerminal() {
			if out.Status == protocol.StatusSucceeded {
				out.Messages = append(out.Messages, messages.Success("Pre-flight successful!"))
			}
			return
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	return nil, fmt.Errorf("%w after %d rounds", ErrTooManyRounds, self.config.MaxVerifyRounds)
}

// Sends the import request
func (self *Controller) Deploy(ctx context.Context, req *protocol.ImportRequest) (out *Result, err error) {
	out, err = self.call(ctx, protocol.MethodImport, req, "batch_id")
	if err != nil {
		return
	}
	if out.BatchID == 0 {
		out.BatchID = req.BatchID
	}
	self.log.WithField("batch_id", out.BatchID).WithField("status", out.Status.String()).Info("Deployed")
	return
}

// Current import status with all deploy messages
func (self *Controller) ImportStatus(ctx context.Context, batchID int64) (out *Result, err error) {
	self.monitor.GetReport().Staging.State.StatusPolls.Inc()

	out, err = self.call(ctx, protocol.MethodImportStatus, protocol.ImportStatusRequest{BatchID: batchID})
	if err != nil {
		return
	}
	out.BatchID = batchID
	return
}

// Polls import status until it is terminal
func (self *Controller) WaitForImport(ctx context.Context, batchID int64) (out *Result, err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(self.config.PollMaxElapsedTime).
		WithMaxInterval(self.config.PollMaxInterval).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if !errors.Is(err, errNotFinished) {
				return backoff.Permanent(err)
			}
			return err
		}).
		Run(func() error {
			self.limiter.Take()

			var err error
			out, err = self.ImportStatus(ctx, batchID)
			if err != nil {
				return err
			}

			if !out.Status.IsTerminal() {
				return errNotFinished
			}
			return nil
		})
	return
}
