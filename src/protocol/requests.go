package protocol

import (
	"github.com/warp-contracts/stager/src/batches"
)

type StoreRequest struct {
	Batch *batches.Batch `json:"batch"`
}

type StoreResponse struct {
	Response
	BatchID int64 `json:"batch_id"`
}

type VerifyRequest struct {
	BatchID int64 `json:"batch_id"`
}

// Either a full batch, or only the id of a batch stored earlier (deferred import)
type ImportRequest struct {
	Batch      *batches.Batch `json:"batch,omitempty"`
	BatchID    int64          `json:"batch_id,omitempty"`
	AutoImport *bool          `json:"auto_import,omitempty"`
}

// Defaults to true when not set
func (self *ImportRequest) IsAutoImport() bool {
	return self.AutoImport == nil || *self.AutoImport
}

type ImportResponse struct {
	Response
	BatchID int64 `json:"batch_id"`
}

type ImportStatusRequest struct {
	BatchID int64 `json:"batch_id"`
}

// Job id and capability key handed to the background import process
type RunImportRequest struct {
	JobID int64  `json:"job_id"`
	Key   string `json:"key"`
}

// Accepted is false when the job was not imported: unknown job, wrong key or not in running state
type RunImportResponse struct {
	ImportResponse
	Accepted bool `json:"accepted"`
}
