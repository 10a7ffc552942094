package monitor_stager

import (
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/monitoring/report"
	"github.com/warp-contracts/stager/src/utils/task"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Import speed
	mtx             sync.Mutex
	ImportDurations *deque.Deque[float64]
	ImportsFinished *deque.Deque[uint64]
}

func NewMonitor(config *config.Config) (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Gateway:        &report.GatewayReport{},
		Preflight:      &report.PreflightReport{},
		Importer:       &report.ImporterReport{},
		Staging:        &report.StagingReport{},
		RedisPublisher: &report.RedisPublisherReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(config, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorImports)

	historySize := 30
	if config != nil && config.Importer.HistorySize > 0 {
		historySize = config.Importer.HistorySize
	}
	return self.WithMaxHistorySize(historySize)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.ImportDurations = deque.New[float64](self.historySize)
	self.ImportsFinished = deque.New[uint64](self.historySize)

	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Moving average of the last imports' durations
func (self *Monitor) RecordImportDuration(d time.Duration) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.ImportDurations.PushBack(d.Seconds())
	if self.ImportDurations.Len() > self.historySize {
		self.ImportDurations.PopFront()
	}

	var sum float64
	for i := 0; i < self.ImportDurations.Len(); i++ {
		sum += self.ImportDurations.At(i)
	}

	self.Report.Importer.State.LastImportSeconds.Store(round(d.Seconds()))
	self.Report.Importer.State.AverageImportSeconds.Store(round(sum / float64(self.ImportDurations.Len())))
}

// Measure import speed
func (self *Monitor) monitorImports() (err error) {
	loaded := self.Report.Importer.State.ImportsSucceeded.Load() + self.Report.Importer.State.ImportsFailed.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.ImportsFinished.PushBack(loaded)
	if self.ImportsFinished.Len() > self.historySize {
		self.ImportsFinished.PopFront()
	}
	value := float64(self.ImportsFinished.Back()-self.ImportsFinished.Front()) / float64(self.ImportsFinished.Len())
	self.Report.Importer.State.AverageImportsPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	// Failing to start background processes means imports can't progress
	return self.Report.Importer.Errors.SpawnFailures.Load() == 0 ||
		self.Report.Importer.State.ProcessesSpawned.Load() > 0
}

func (self *Monitor) OnGetState(c *gin.Context) {
	// Fill data
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))

	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
