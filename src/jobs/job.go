package jobs

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/protocol"
)

var ErrNotFound = errors.New("import job not found")

// One deploy/import execution
type Job struct {
	ID      int64
	BatchID int64

	// Capability token the background importer authenticates with
	AccessKey string

	Status protocol.Status

	// Owned copy of the batch, nil after soft delete
	Batch *batches.Batch

	CompletedSteps []string
	Deleted        bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Constant time check of the capability key
func (self *Job) Authenticate(key string) bool {
	if self.AccessKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(self.AccessKey), []byte(key)) == 1
}

func newAccessKey() string {
	return uuid.NewString()
}

type Store interface {
	// Creates a not started job owning a copy of the batch
	Create(ctx context.Context, batch *batches.Batch) (*Job, error)
	Get(ctx context.Context, id int64) (*Job, error)

	// Most recent job of the batch, soft deleted jobs included
	FindByBatchID(ctx context.Context, batchID int64) (*Job, error)

	UpdateStatus(ctx context.Context, id int64, status protocol.Status) error
	MarkStepCompleted(ctx context.Context, id int64, step string) error

	// Clears the batch copy, keeps the record and its status
	SoftDelete(ctx context.Context, id int64) error
}
