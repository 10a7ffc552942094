package report

import (
	"go.uber.org/atomic"
)

type ImporterErrors struct {
	StepFailures  atomic.Uint64 `json:"step_failures"`
	SpawnFailures atomic.Uint64 `json:"spawn_failures"`
	DbError       atomic.Uint64 `json:"db_error"`
}

type ImporterState struct {
	BatchesCommitted atomic.Uint64 `json:"batches_committed"`
	ImportsStarted   atomic.Uint64 `json:"imports_started"`
	ImportsSucceeded atomic.Uint64 `json:"imports_succeeded"`
	ImportsFailed    atomic.Uint64 `json:"imports_failed"`
	ProcessesSpawned atomic.Uint64 `json:"processes_spawned"`
	ItemsImported    atomic.Uint64 `json:"items_imported"`
	DeferredRefused  atomic.Uint64 `json:"deferred_refused"`
	RunningProcesses atomic.Int64  `json:"running_processes"`

	LastImportSeconds       atomic.Float64 `json:"last_import_seconds"`
	AverageImportSeconds    atomic.Float64 `json:"average_import_seconds"`
	AverageImportsPerMinute atomic.Float64 `json:"average_imports_per_minute"`
}

type ImporterReport struct {
	State  ImporterState  `json:"state"`
	Errors ImporterErrors `json:"errors"`
}
