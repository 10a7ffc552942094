package report

import (
	"go.uber.org/atomic"
)

type StagingErrors struct {
	TransportFailures atomic.Uint64 `json:"transport_failures"`
	ContractViolation atomic.Uint64 `json:"contract_violation"`
}

type StagingState struct {
	RequestsSent atomic.Uint64 `json:"requests_sent"`
	StatusPolls  atomic.Uint64 `json:"status_polls"`
}

type StagingReport struct {
	State  StagingState  `json:"state"`
	Errors StagingErrors `json:"errors"`
}
