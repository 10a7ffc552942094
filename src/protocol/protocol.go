package protocol

import (
	"github.com/warp-contracts/stager/src/messages"
)

// Remote methods exposed by the production peer
const (
	MethodStore        = "store"
	MethodVerify       = "verify"
	MethodImport       = "import"
	MethodImportStatus = "import_status"

	// Called back by the background import process
	MethodRunImport = "run_import"
)

// Status of a pre-flight run or an import job. Values are part of the wire protocol.
type Status int

const (
	StatusNotStarted Status = 0
	StatusRunning    Status = 1
	StatusFailed     Status = 2
	StatusSucceeded  Status = 3
)

func (self Status) IsTerminal() bool {
	return self == StatusFailed || self == StatusSucceeded
}

func (self Status) String() string {
	switch self {
	case StatusNotStarted:
		return "not started"
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	case StatusSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Body of a polling style response
type Response struct {
	Status   Status             `json:"status"`
	Messages []messages.Message `json:"messages"`
}

func Failed(msgs ...messages.Message) *Response {
	return &Response{Status: StatusFailed, Messages: msgs}
}
