package production

import (
	"github.com/warp-contracts/stager/src/background"
	"github.com/warp-contracts/stager/src/deploy"
	"github.com/warp-contracts/stager/src/gateway"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/preflight"
	"github.com/warp-contracts/stager/src/utils/config"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"github.com/warp-contracts/stager/src/utils/publisher"
	"github.com/warp-contracts/stager/src/utils/task"
)

// Production environment: receives batches from staging, verifies and imports them
type Controller struct {
	*task.Task

	Server *gateway.Server
	Hooks  *hooks.Registry
	Stores *Stores
}

// Main class that orchestrates everything
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "production-controller")

	stores, err := NewStores(self.Ctx, config, "server")
	if err != nil {
		return
	}
	self.Stores = stores

	// Monitoring
	monitor := monitor_stager.NewMonitor(config)
	self.Task.WithSubtask(monitor.Task)

	// Status changes are published only when there's someone to publish to
	var jobStore jobs.Store = stores.Jobs
	if config.Redis.Enabled {
		notifying := jobs.NewNotifyingStore(stores.Jobs)
		jobStore = notifying

		statusPublisher := publisher.NewRedisPublisher[*jobs.StatusEvent](config, "status-publisher").
			WithInputChannel(notifying.Output()).
			WithMonitor(monitor)
		self.Task.WithSubtask(statusPublisher.Task)
	}

	// Extension points, shared by pre-flight and import
	self.Hooks = hooks.NewRegistry()

	verifier := preflight.NewVerifier(config).
		WithBatchStore(stores.Batches).
		WithMessageLog(stores.Messages).
		WithHooks(self.Hooks).
		WithMonitor(monitor).
		WithDefaultChecks(stores.Content)

	importer := deploy.NewImporter(config).
		WithBatchStore(stores.Batches).
		WithJobStore(jobStore).
		WithMessageLog(stores.Messages).
		WithContentStore(stores.Content).
		WithHooks(self.Hooks).
		WithMonitor(monitor)

	service := deploy.NewService(importer)

	if config.Importer.IsBackground() {
		// Separate processes call back with run_import, the import itself runs here
		var spawner *background.ExecSpawner
		spawner, err = background.NewExecSpawner(config)
		if err != nil {
			return
		}

		runner := background.NewRunner(config).
			WithSpawner(spawner).
			WithJobStore(jobStore).
			WithMessageLog(stores.Messages).
			WithMonitor(monitor)

		service.WithExecutor(runner)
		self.Task.WithSubtask(runner.Task)
	}

	// RPC endpoint and monitoring
	self.Server = gateway.NewServer(config).
		WithMonitor(monitor)
	gateway.NewController(verifier, service).Register(self.Server)

	// Setup everything, will start upon calling Controller.Start()
	self.Task.WithSubtask(self.Server.Task)
	return
}
