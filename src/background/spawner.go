package background

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/warp-contracts/stager/src/jobs"
	"github.com/warp-contracts/stager/src/utils/config"
)

// Started import process
type Process interface {
	Pid() int
	Wait() error
}

// Starts the out-of-process importer for a job
type Spawner interface {
	Spawn(job *jobs.Job) (Process, error)
}

// Runs `<executable> import-worker --url U --job N --key K [--config F]`
type ExecSpawner struct {
	executable  string
	configFile  string
	callbackURL string
}

func NewExecSpawner(config *config.Config) (self *ExecSpawner, err error) {
	self = new(ExecSpawner)
	self.configFile = config.Importer.ConfigFile
	self.callbackURL = config.Importer.CallbackURL
	self.executable = config.Importer.Executable
	if self.executable == "" {
		self.executable, err = os.Executable()
		if err != nil {
			return nil, err
		}
	}
	return
}

func (self *ExecSpawner) args(job *jobs.Job) []string {
	args := []string{"import-worker", "--url", self.callbackURL, "--job", strconv.FormatInt(job.ID, 10), "--key", job.AccessKey}
	if self.configFile != "" {
		args = append(args, "--config", self.configFile)
	}
	return args
}

func (self *ExecSpawner) Spawn(job *jobs.Job) (Process, error) {
	// Not bound to any request context, the import outlives the call that started it
	cmd := exec.Command(self.executable, self.args(job)...)
	cmd.Env = os.Environ()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Start()
	if err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (self *execProcess) Pid() int {
	return self.cmd.Process.Pid
}

func (self *execProcess) Wait() error {
	return self.cmd.Wait()
}
