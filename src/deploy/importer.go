package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/monitoring"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
)

// Code of the message that opens every deploy log
const CodePreparingImport = 100

// Commits incoming batches and imports them into the content store
type Importer struct {
	log     *logrus.Entry
	monitor monitoring.Monitor

	relationMetaKeys []string

	batches    batches.Store
	jobs       jobs.Store
	messageLog messages.Log
	content    content.Store
	hooks      *hooks.Registry
}

func NewImporter(config *config.Config) (self *Importer) {
	self = new(Importer)
	self.log = logger.NewSublogger("importer")
	self.relationMetaKeys = config.Importer.RelationMetaKeys
	self.hooks = hooks.NewRegistry()
	self.monitor = monitor_stager.NewMonitor(config)
	return
}

func (self *Importer) WithBatchStore(v batches.Store) *Importer {
	self.batches = v
	return self
}

func (self *Importer) WithJobStore(v jobs.Store) *Importer {
	self.jobs = v
	return self
}

func (self *Importer) WithMessageLog(v messages.Log) *Importer {
	self.messageLog = v
	return self
}

func (self *Importer) WithContentStore(v content.Store) *Importer {
	self.content = v
	return self
}

func (self *Importer) WithHooks(v *hooks.Registry) *Importer {
	self.hooks = v
	return self
}

func (self *Importer) WithMonitor(v monitoring.Monitor) *Importer {
	self.monitor = v
	return self
}

// Upserts the incoming batch by GUID and opens a fresh deploy log for it
func (self *Importer) ExtractAndCommit(ctx context.Context, incoming *batches.Batch) (committed *batches.Batch, err error) {
	if incoming == nil || incoming.GUID == "" {
		return nil, batches.ErrMissingGUID
	}

	committed, err = incoming.Clone()
	if err != nil {
		return
	}

	existed, err := batches.Upsert(ctx, self.batches, committed)
	if err != nil {
		self.monitor.GetReport().Importer.Errors.DbError.Inc()
		return nil, err
	}

	if existed {
		// Pre-flight results refer to the previous version
		err = self.messageLog.Purge(ctx, committed.ID, messages.GroupPreflight)
		if err != nil {
			return nil, err
		}
	}

	err = self.messageLog.Purge(ctx, committed.ID, messages.GroupDeploy)
	if err != nil {
		return nil, err
	}

	err = self.messageLog.Append(ctx, committed.ID, messages.GroupDeploy,
		messages.Info(fmt.Sprintf("Preparing batch import (ID: %d)", committed.ID)).WithCode(CodePreparingImport))
	if err != nil {
		return nil, err
	}

	self.monitor.GetReport().Importer.State.BatchesCommitted.Inc()
	self.log.WithField("id", committed.ID).WithField("guid", committed.GUID).WithField("existed", existed).Info("Batch committed")
	return
}

// Runs all import steps of the job. Failing steps are recorded and the remaining steps still run.
// A started import always ends in a terminal status, the caller's cancellation is ignored.
func (self *Importer) Import(ctx context.Context, job *jobs.Job) (status protocol.Status, err error) {
	if job.Batch == nil {
		return job.Status, fmt.Errorf("job %d has no batch", job.ID)
	}

	ctx = context.WithoutCancel(ctx)

	start := time.Now()
	log := self.log.WithField("job", job.ID).WithField("batch", job.BatchID)
	log.Info("Import started")

	err = self.jobs.UpdateStatus(ctx, job.ID, protocol.StatusRunning)
	if err != nil {
		self.monitor.GetReport().Importer.Errors.DbError.Inc()
		return
	}
	self.monitor.GetReport().Importer.State.ImportsStarted.Inc()

	status, err = self.runSteps(ctx, job)
	if err != nil {
		log.WithError(err).Error("Import aborted")
		self.monitor.GetReport().Importer.Errors.DbError.Inc()
		status = protocol.StatusFailed
		self.abort(ctx, job, err)
	}

	if status == protocol.StatusSucceeded {
		self.monitor.GetReport().Importer.State.ImportsSucceeded.Inc()
	} else {
		self.monitor.GetReport().Importer.State.ImportsFailed.Inc()
	}
	self.monitor.RecordImportDuration(time.Since(start))

	log.WithField("status", status.String()).WithField("duration", time.Since(start)).Info("Import finished")
	return
}

// Marks the job failed after an infrastructure error. Best effort, every step is attempted.
func (self *Importer) abort(ctx context.Context, job *jobs.Job, cause error) {
	log := self.log.WithField("job", job.ID)

	err := self.jobs.UpdateStatus(ctx, job.ID, protocol.StatusFailed)
	if err != nil {
		log.WithError(err).Error("Failed to mark job as failed")
	}

	err = self.messageLog.Append(ctx, job.BatchID, messages.GroupDeploy,
		messages.Error(fmt.Sprintf("Batch import failed: %s", cause)))
	if err != nil {
		log.WithError(err).Error("Failed to append import failure")
	}

	err = self.jobs.SoftDelete(ctx, job.ID)
	if err != nil {
		log.WithError(err).Error("Failed to soft delete job")
	}
}

func (self *Importer) runSteps(ctx context.Context, job *jobs.Job) (status protocol.Status, err error) {
	log := self.log.WithField("job", job.ID).WithField("batch", job.BatchID)

	r := &run{
		importer: self,
		batch:    job.Batch,
		ids:      make(map[string]int64),
		posts:    make(map[string]*content.Record),
	}

	hc := &hooks.Context{Batch: job.Batch}
	err = self.hooks.Before(ctx, hooks.StageBeforeImport, hc)
	if err != nil {
		hc.Add(messages.Error(err.Error()))
	}
	r.add(hc.Messages...)

	steps := []struct {
		name string
		f    func(context.Context) error
	}{
		{StepAttachments, r.importAttachments},
		{StepAccounts, r.importAccounts},
		{StepPosts, r.importPosts},
		{StepPostMeta, r.importPostMeta},
		{StepParents, r.importParents},
		{StepCustomData, r.importCustomData},
		{StepPublish, r.publish},
		{StepTeardown, r.teardown},
	}

	for _, step := range steps {
		before := len(r.messages)

		err = step.f(ctx)
		if err != nil {
			r.add(messages.Error(fmt.Sprintf("Import step %s failed: %s", step.name, err)))
		}

		if messages.HasErrors(r.messages[before:]) {
			self.monitor.GetReport().Importer.Errors.StepFailures.Inc()
			log.WithField("step", step.name).Warn("Import step finished with errors")
		}

		// Messages are flushed after each step, so status polls see progress
		err = self.messageLog.Append(ctx, job.BatchID, messages.GroupDeploy, r.messages[before:]...)
		if err != nil {
			return
		}

		err = self.jobs.MarkStepCompleted(ctx, job.ID, step.name)
		if err != nil {
			return
		}
	}

	status = protocol.StatusSucceeded
	final := messages.Success("Batch has been successfully imported!")
	if r.hasErrors() {
		status = protocol.StatusFailed
		final = messages.Error("Batch import finished with errors.")
	}

	hc = &hooks.Context{Batch: job.Batch}
	err = self.hooks.After(ctx, hooks.StageAfterImport, hc, status)
	if err != nil {
		log.WithError(err).Warn("After import extension failed")
	}

	err = self.messageLog.Append(ctx, job.BatchID, messages.GroupDeploy, append(hc.Messages, final)...)
	if err != nil {
		return
	}

	err = self.jobs.UpdateStatus(ctx, job.ID, status)
	if err != nil {
		return
	}

	// Payload is dropped, status and messages stay queryable
	err = self.jobs.SoftDelete(ctx, job.ID)
	return
}
