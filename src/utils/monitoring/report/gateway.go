package report

import (
	"go.uber.org/atomic"
)

type GatewayErrors struct {
	AuthFailures     atomic.Uint64 `json:"auth_failures"`
	MalformedPayload atomic.Uint64 `json:"malformed_payload"`
	UnknownMethod    atomic.Uint64 `json:"unknown_method"`
	RateLimited      atomic.Uint64 `json:"rate_limited"`
	HandlerFailures  atomic.Uint64 `json:"handler_failures"`
}

type GatewayState struct {
	RequestsReceived atomic.Uint64 `json:"requests_received"`
	RequestsHandled  atomic.Uint64 `json:"requests_handled"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
