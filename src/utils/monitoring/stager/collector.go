package monitor_stager

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Gateway
	RequestsReceived *prometheus.Desc
	RequestsHandled  *prometheus.Desc
	AuthFailures     *prometheus.Desc
	MalformedPayload *prometheus.Desc
	UnknownMethod    *prometheus.Desc
	RateLimited      *prometheus.Desc
	HandlerFailures  *prometheus.Desc

	// Preflight
	BatchesStored      *prometheus.Desc
	CategoriesVerified *prometheus.Desc
	PreflightSucceeded *prometheus.Desc
	PreflightFailed    *prometheus.Desc
	PreflightDbError   *prometheus.Desc

	// Importer
	BatchesCommitted        *prometheus.Desc
	ImportsStarted          *prometheus.Desc
	ImportsSucceeded        *prometheus.Desc
	ImportsFailed           *prometheus.Desc
	ItemsImported           *prometheus.Desc
	DeferredRefused         *prometheus.Desc
	RunningProcesses        *prometheus.Desc
	AverageImportSeconds    *prometheus.Desc
	AverageImportsPerMinute *prometheus.Desc
	StepFailures            *prometheus.Desc
	SpawnFailures           *prometheus.Desc
	ImporterDbError         *prometheus.Desc

	// Redis
	MessagesPublished *prometheus.Desc
	PublishErrors     *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "stager",
	}

	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, labels),

		RequestsReceived: prometheus.NewDesc("gateway_requests_received", "", nil, labels),
		RequestsHandled:  prometheus.NewDesc("gateway_requests_handled", "", nil, labels),
		AuthFailures:     prometheus.NewDesc("error_gateway_auth", "", nil, labels),
		MalformedPayload: prometheus.NewDesc("error_gateway_malformed_payload", "", nil, labels),
		UnknownMethod:    prometheus.NewDesc("error_gateway_unknown_method", "", nil, labels),
		RateLimited:      prometheus.NewDesc("error_gateway_rate_limited", "", nil, labels),
		HandlerFailures:  prometheus.NewDesc("error_gateway_handler", "", nil, labels),

		BatchesStored:      prometheus.NewDesc("preflight_batches_stored", "", nil, labels),
		CategoriesVerified: prometheus.NewDesc("preflight_categories_verified", "", nil, labels),
		PreflightSucceeded: prometheus.NewDesc("preflight_runs_succeeded", "", nil, labels),
		PreflightFailed:    prometheus.NewDesc("preflight_runs_failed", "", nil, labels),
		PreflightDbError:   prometheus.NewDesc("error_preflight_db", "", nil, labels),

		BatchesCommitted:        prometheus.NewDesc("importer_batches_committed", "", nil, labels),
		ImportsStarted:          prometheus.NewDesc("importer_imports_started", "", nil, labels),
		ImportsSucceeded:        prometheus.NewDesc("importer_imports_succeeded", "", nil, labels),
		ImportsFailed:           prometheus.NewDesc("importer_imports_failed", "", nil, labels),
		ItemsImported:           prometheus.NewDesc("importer_items_imported", "", nil, labels),
		DeferredRefused:         prometheus.NewDesc("importer_deferred_refused", "", nil, labels),
		RunningProcesses:        prometheus.NewDesc("importer_running_processes", "", nil, labels),
		AverageImportSeconds:    prometheus.NewDesc("importer_average_import_seconds", "", nil, labels),
		AverageImportsPerMinute: prometheus.NewDesc("importer_average_imports_per_minute", "", nil, labels),
		StepFailures:            prometheus.NewDesc("error_importer_step", "", nil, labels),
		SpawnFailures:           prometheus.NewDesc("error_importer_spawn", "", nil, labels),
		ImporterDbError:         prometheus.NewDesc("error_importer_db", "", nil, labels),

		MessagesPublished: prometheus.NewDesc("redis_messages_published", "", nil, labels),
		PublishErrors:     prometheus.NewDesc("error_redis_publish", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.UpForSeconds

	ch <- self.RequestsReceived
	ch <- self.RequestsHandled
	ch <- self.AuthFailures
	ch <- self.MalformedPayload
	ch <- self.UnknownMethod
	ch <- self.RateLimited
	ch <- self.HandlerFailures

	ch <- self.BatchesStored
	ch <- self.CategoriesVerified
	ch <- self.PreflightSucceeded
	ch <- self.PreflightFailed
	ch <- self.PreflightDbError

	ch <- self.BatchesCommitted
	ch <- self.ImportsStarted
	ch <- self.ImportsSucceeded
	ch <- self.ImportsFailed
	ch <- self.ItemsImported
	ch <- self.DeferredRefused
	ch <- self.RunningProcesses
	ch <- self.AverageImportSeconds
	ch <- self.AverageImportsPerMinute
	ch <- self.StepFailures
	ch <- self.SpawnFailures
	ch <- self.ImporterDbError

	ch <- self.MessagesPublished
	ch <- self.PublishErrors
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := self.monitor.GetReport()

	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(r.Run.State.UpForSeconds.Load()))

	ch <- prometheus.MustNewConstMetric(self.RequestsReceived, prometheus.CounterValue, float64(r.Gateway.State.RequestsReceived.Load()))
	ch <- prometheus.MustNewConstMetric(self.RequestsHandled, prometheus.CounterValue, float64(r.Gateway.State.RequestsHandled.Load()))
	ch <- prometheus.MustNewConstMetric(self.AuthFailures, prometheus.CounterValue, float64(r.Gateway.Errors.AuthFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.MalformedPayload, prometheus.CounterValue, float64(r.Gateway.Errors.MalformedPayload.Load()))
	ch <- prometheus.MustNewConstMetric(self.UnknownMethod, prometheus.CounterValue, float64(r.Gateway.Errors.UnknownMethod.Load()))
	ch <- prometheus.MustNewConstMetric(self.RateLimited, prometheus.CounterValue, float64(r.Gateway.Errors.RateLimited.Load()))
	ch <- prometheus.MustNewConstMetric(self.HandlerFailures, prometheus.CounterValue, float64(r.Gateway.Errors.HandlerFailures.Load()))

	ch <- prometheus.MustNewConstMetric(self.BatchesStored, prometheus.CounterValue, float64(r.Preflight.State.BatchesStored.Load()))
	ch <- prometheus.MustNewConstMetric(self.CategoriesVerified, prometheus.CounterValue, float64(r.Preflight.State.CategoriesVerified.Load()))
	ch <- prometheus.MustNewConstMetric(self.PreflightSucceeded, prometheus.CounterValue, float64(r.Preflight.State.RunsSucceeded.Load()))
	ch <- prometheus.MustNewConstMetric(self.PreflightFailed, prometheus.CounterValue, float64(r.Preflight.State.RunsFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.PreflightDbError, prometheus.CounterValue, float64(r.Preflight.Errors.DbError.Load()))

	ch <- prometheus.MustNewConstMetric(self.BatchesCommitted, prometheus.CounterValue, float64(r.Importer.State.BatchesCommitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.ImportsStarted, prometheus.CounterValue, float64(r.Importer.State.ImportsStarted.Load()))
	ch <- prometheus.MustNewConstMetric(self.ImportsSucceeded, prometheus.CounterValue, float64(r.Importer.State.ImportsSucceeded.Load()))
	ch <- prometheus.MustNewConstMetric(self.ImportsFailed, prometheus.CounterValue, float64(r.Importer.State.ImportsFailed.Load()))
	ch <- prometheus.MustNewConstMetric(self.ItemsImported, prometheus.CounterValue, float64(r.Importer.State.ItemsImported.Load()))
	ch <- prometheus.MustNewConstMetric(self.DeferredRefused, prometheus.CounterValue, float64(r.Importer.State.DeferredRefused.Load()))
	ch <- prometheus.MustNewConstMetric(self.RunningProcesses, prometheus.GaugeValue, float64(r.Importer.State.RunningProcesses.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageImportSeconds, prometheus.GaugeValue, r.Importer.State.AverageImportSeconds.Load())
	ch <- prometheus.MustNewConstMetric(self.AverageImportsPerMinute, prometheus.GaugeValue, r.Importer.State.AverageImportsPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.StepFailures, prometheus.CounterValue, float64(r.Importer.Errors.StepFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.SpawnFailures, prometheus.CounterValue, float64(r.Importer.Errors.SpawnFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ImporterDbError, prometheus.CounterValue, float64(r.Importer.Errors.DbError.Load()))

	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(r.RedisPublisher.State.MessagesPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishErrors, prometheus.CounterValue, float64(r.RedisPublisher.Errors.Publish.Load()))
}
