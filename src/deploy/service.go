package deploy

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/logger"
)

// Runs an accepted import job
type Executor interface {
	Start(ctx context.Context, job *jobs.Job) error
}

// Imports within the calling request
type InlineExecutor struct {
	importer *Importer
}

func NewInlineExecutor(importer *Importer) *InlineExecutor {
	return &InlineExecutor{importer: importer}
}

func (self *InlineExecutor) Start(ctx context.Context, job *jobs.Job) error {
	if job.Status != protocol.StatusNotStarted || job.Deleted {
		return nil
	}
	_, err := self.importer.Import(ctx, job)
	return err
}

// Handles import and import_status calls on production
type Service struct {
	log      *logrus.Entry
	importer *Importer
	executor Executor

	// Serializes the in-flight check with job creation
	mtx sync.Mutex
}

func NewService(importer *Importer) (self *Service) {
	self = new(Service)
	self.log = logger.NewSublogger("deploy")
	self.importer = importer
	self.executor = NewInlineExecutor(importer)
	return
}

func (self *Service) WithExecutor(v Executor) *Service {
	self.executor = v
	return self
}

func (self *Service) Import(ctx context.Context, req *protocol.ImportRequest) (out *protocol.ImportResponse, err error) {
	self.mtx.Lock()
	job, out, err := self.accept(ctx, req)
	self.mtx.Unlock()
	if err != nil || out != nil {
		return
	}

	err = self.executor.Start(ctx, job)
	if err != nil {
		return
	}

	current, err := self.importer.jobs.Get(ctx, job.ID)
	if err != nil {
		return
	}

	return self.response(ctx, job.BatchID, current.Status)
}

// Commits the batch and creates its job. A non nil response ends the call without starting anything.
func (self *Service) accept(ctx context.Context, req *protocol.ImportRequest) (job *jobs.Job, out *protocol.ImportResponse, err error) {
	var batch *batches.Batch

	switch {
	case req.Batch != nil:
		if req.Batch.GUID == "" {
			return nil, &protocol.ImportResponse{Response: *protocol.Failed(messages.Error("Invalid batch!"))}, nil
		}

		out, err = self.inFlightByGUID(ctx, req.Batch.GUID)
		if err != nil || out != nil {
			return
		}

		batch, err = self.importer.ExtractAndCommit(ctx, req.Batch)
		if err != nil {
			return
		}
	case req.BatchID > 0:
		out, err = self.inFlight(ctx, req.BatchID)
		if err != nil || out != nil {
			return
		}

		var refused *protocol.Response
		batch, refused, err = self.deferred(ctx, req.BatchID)
		if err != nil || refused != nil {
			if refused != nil {
				out = &protocol.ImportResponse{Response: *refused, BatchID: req.BatchID}
			}
			return
		}
	default:
		return nil, &protocol.ImportResponse{Response: *protocol.Failed(messages.Error("No batch provided."))}, nil
	}

	if !req.IsAutoImport() {
		// Stored only, a later import call with the batch id does the work
		out, err = self.response(ctx, batch.ID, protocol.StatusNotStarted)
		return
	}

	job, err = self.importer.jobs.Create(ctx, batch)
	return
}

func (self *Service) inFlightByGUID(ctx context.Context, guid string) (out *protocol.ImportResponse, err error) {
	existing, err := self.importer.batches.FindByGUID(ctx, guid)
	if errors.Is(err, batches.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return
	}
	return self.inFlight(ctx, existing.ID)
}

// Reports the batch's job if it is still pending or running. Retries must not reset its log or start it twice.
func (self *Service) inFlight(ctx context.Context, batchID int64) (out *protocol.ImportResponse, err error) {
	job, err := self.importer.jobs.FindByBatchID(ctx, batchID)
	if errors.Is(err, jobs.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return
	}

	if job.Deleted || job.Status.IsTerminal() {
		return nil, nil
	}

	self.log.WithField("batch", batchID).WithField("job", job.ID).Info("Import already in progress")
	return self.response(ctx, batchID, job.Status)
}

// Runs a job handed to the background import process. The key is the job's capability.
func (self *Service) RunJob(ctx context.Context, jobID int64, key string) (out *protocol.RunImportResponse, err error) {
	job, err := self.importer.jobs.Get(ctx, jobID)
	if errors.Is(err, jobs.ErrNotFound) {
		return rejected(0, fmt.Sprintf("No import job with ID %d found.", jobID)), nil
	}
	if err != nil {
		return
	}

	if !job.Authenticate(key) {
		self.log.WithField("job", jobID).Warn("Import job access denied")
		return rejected(job.BatchID, fmt.Sprintf("Access denied for import job %d.", jobID)), nil
	}

	// Runner marks the job as running right before spawning
	if job.Status != protocol.StatusRunning || job.Deleted {
		return rejected(job.BatchID, fmt.Sprintf("Import job %d can't be imported in status %s.", jobID, job.Status.String())), nil
	}

	status, err := self.importer.Import(ctx, job)
	if err != nil {
		self.log.WithError(err).WithField("job", jobID).Error("Import job failed")
		status = protocol.StatusFailed
	}

	resp, err := self.response(ctx, job.BatchID, status)
	if err != nil {
		return
	}
	return &protocol.RunImportResponse{ImportResponse: *resp, Accepted: true}, nil
}

func rejected(batchID int64, text string) *protocol.RunImportResponse {
	return &protocol.RunImportResponse{
		ImportResponse: protocol.ImportResponse{Response: *protocol.Failed(messages.Error(text)), BatchID: batchID},
	}
}

// Loads a committed batch and checks it is the content that passed pre-flight
func (self *Service) deferred(ctx context.Context, batchID int64) (batch *batches.Batch, refused *protocol.Response, err error) {
	batch, err = self.importer.batches.Get(ctx, batchID)
	if errors.Is(err, batches.ErrNotFound) {
		return nil, protocol.Failed(messages.Error(fmt.Sprintf("No batch with ID %d found.", batchID))), nil
	}
	if err != nil {
		return
	}

	verified, err := self.importer.batches.GetDigest(ctx, batchID)
	if err != nil {
		return
	}

	digest, err := batch.Digest()
	if err != nil {
		return
	}

	if verified == "" || verified != digest {
		self.importer.monitor.GetReport().Importer.State.DeferredRefused.Inc()
		self.log.WithField("id", batchID).Warn("Deferred import refused, batch changed since pre-flight")
		return nil, protocol.Failed(messages.Error("Batch has changed since the last successful pre-flight, run pre-flight again.")), nil
	}

	err = self.importer.messageLog.Purge(ctx, batchID, messages.GroupDeploy)
	if err != nil {
		return
	}
	err = self.importer.messageLog.Append(ctx, batchID, messages.GroupDeploy,
		messages.Info(fmt.Sprintf("Preparing batch import (ID: %d)", batchID)).WithCode(CodePreparingImport))
	return
}

// Status of the latest job of the batch with all deploy messages
func (self *Service) ImportStatus(ctx context.Context, batchID int64) (out *protocol.Response, err error) {
	if batchID <= 0 {
		return protocol.Failed(messages.Error("No batch ID provided.")), nil
	}

	status := protocol.StatusNotStarted

	job, err := self.importer.jobs.FindByBatchID(ctx, batchID)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		err = nil
	case err != nil:
		return
	default:
		// Picks up jobs that were accepted but never started
		err = self.executor.Start(ctx, job)
		if err != nil {
			return
		}

		job, err = self.importer.jobs.Get(ctx, job.ID)
		if err != nil {
			return
		}
		status = job.Status
	}

	r, err := self.response(ctx, batchID, status)
	if err != nil {
		return
	}
	return &r.Response, nil
}

func (self *Service) response(ctx context.Context, batchID int64, status protocol.Status) (out *protocol.ImportResponse, err error) {
	msgs, err := self.importer.messageLog.List(ctx, batchID, messages.GroupDeploy)
	if err != nil {
		return
	}
	return &protocol.ImportResponse{
		Response: protocol.Response{Status: status, Messages: msgs},
		BatchID:  batchID,
	}, nil
}
