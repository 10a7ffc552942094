package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/warp-contracts/stager/src/protocol"
)

// Published on every status change of an import job
type StatusEvent struct {
	JobID     int64           `json:"job_id"`
	BatchID   int64           `json:"batch_id"`
	Status    protocol.Status `json:"status"`
	Timestamp int64           `json:"timestamp"`
}

func (self *StatusEvent) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}

// Forwards status changes of the wrapped store to a channel
type NotifyingStore struct {
	Store
	output chan *StatusEvent
}

func NewNotifyingStore(store Store) *NotifyingStore {
	return &NotifyingStore{
		Store:  store,
		output: make(chan *StatusEvent, 100),
	}
}

func (self *NotifyingStore) Output() chan *StatusEvent {
	return self.output
}

func (self *NotifyingStore) UpdateStatus(ctx context.Context, id int64, status protocol.Status) (err error) {
	err = self.Store.UpdateStatus(ctx, id, status)
	if err != nil {
		return
	}

	job, err := self.Store.Get(ctx, id)
	if err != nil {
		return
	}

	event := &StatusEvent{
		JobID:     id,
		BatchID:   job.BatchID,
		Status:    status,
		Timestamp: time.Now().Unix(),
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case self.output <- event:
	}
	return nil
}
