package report

import (
	"go.uber.org/atomic"
)

type PreflightErrors struct {
	DbError atomic.Uint64 `json:"db_error"`
}

type PreflightState struct {
	BatchesStored      atomic.Uint64 `json:"batches_stored"`
	CategoriesVerified atomic.Uint64 `json:"categories_verified"`
	RunsSucceeded      atomic.Uint64 `json:"runs_succeeded"`
	RunsFailed         atomic.Uint64 `json:"runs_failed"`
}

type PreflightReport struct {
	State  PreflightState  `json:"state"`
	Errors PreflightErrors `json:"errors"`
}
