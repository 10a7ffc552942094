package background

import (
	"context"
	"sync"
	"time"

	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/monitoring"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/task"
)

// Runs imports in separate processes and waits for them to exit
type Runner struct {
	*task.Task

	monitor monitoring.Monitor
	spawner Spawner

	jobs       jobs.Store
	messageLog messages.Log

	// Serializes the check-and-start of jobs
	mtx sync.Mutex
}

func NewRunner(config *config.Config) (self *Runner) {
	self = new(Runner)

	poolSize := config.Importer.ReaperPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	self.Task = task.NewTask(config, "background-runner").
		WithWorkerPool(poolSize, 0).
		WithPeriodicSubtaskFunc(time.Minute, self.report)

	self.monitor = monitor_stager.NewMonitor(config)

	return
}

func (self *Runner) WithSpawner(v Spawner) *Runner {
	self.spawner = v
	return self
}

func (self *Runner) WithJobStore(v jobs.Store) *Runner {
	self.jobs = v
	return self
}

func (self *Runner) WithMessageLog(v messages.Log) *Runner {
	self.messageLog = v
	return self
}

func (self *Runner) WithMonitor(v monitoring.Monitor) *Runner {
	self.monitor = v
	return self
}

func (self *Runner) report() error {
	self.Log.WithField("running", self.monitor.GetReport().Importer.State.RunningProcesses.Load()).Debug("Background imports")
	return nil
}

// Spawns the import process of the job. Jobs that already left the not started state are skipped.
func (self *Runner) Start(ctx context.Context, job *jobs.Job) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	// Status passed by the caller may be stale
	current, err := self.jobs.Get(ctx, job.ID)
	if err != nil {
		return
	}
	if current.Status != protocol.StatusNotStarted || current.Deleted {
		self.Log.WithField("job", job.ID).WithField("status", current.Status.String()).Debug("Job already started")
		return nil
	}

	// Marked before spawning, the process may finish before Spawn returns
	err = self.jobs.UpdateStatus(ctx, job.ID, protocol.StatusRunning)
	if err != nil {
		return
	}

	process, spawnErr := self.spawner.Spawn(current)
	if spawnErr != nil {
		self.Log.WithError(spawnErr).WithField("job", job.ID).Error("Failed to spawn import process")
		self.monitor.GetReport().Importer.Errors.SpawnFailures.Inc()
		return self.fail(ctx, current, "Batch import failed to start.")
	}

	self.Log.WithField("job", job.ID).WithField("pid", process.Pid()).Info("Import process started")
	self.monitor.GetReport().Importer.State.ProcessesSpawned.Inc()
	self.monitor.GetReport().Importer.State.RunningProcesses.Inc()

	self.SubmitToWorker(func() {
		self.reap(current, process)
	})
	return nil
}

func (self *Runner) fail(ctx context.Context, job *jobs.Job, text string) (err error) {
	err = self.jobs.UpdateStatus(ctx, job.ID, protocol.StatusFailed)
	if err != nil {
		return
	}
	return self.messageLog.Append(ctx, job.BatchID, messages.GroupDeploy, messages.Error(text))
}

// Waits for the process. A process that exits without finishing the job fails it.
func (self *Runner) reap(job *jobs.Job, process Process) {
	defer self.monitor.GetReport().Importer.State.RunningProcesses.Dec()

	waitErr := process.Wait()

	log := self.Log.WithField("job", job.ID).WithField("pid", process.Pid())
	if waitErr != nil {
		log = log.WithError(waitErr)
	}

	ctx := context.Background()
	current, err := self.jobs.Get(ctx, job.ID)
	if err != nil {
		log.WithError(err).Error("Failed to get job after import process exited")
		return
	}

	if current.Status.IsTerminal() {
		log.WithField("status", current.Status.String()).Info("Import process finished")
		return
	}

	log.Error("Import process exited before finishing the job")
	err = self.fail(ctx, current, "Batch import process exited unexpectedly.")
	if err != nil {
		log.WithError(err).Error("Failed to mark job as failed")
	}
}

// Current status of the job
func (self *Runner) Poll(ctx context.Context, jobID int64) (protocol.Status, error) {
	job, err := self.jobs.Get(ctx, jobID)
	if err != nil {
		return protocol.StatusNotStarted, err
	}
	return job.Status, nil
}
