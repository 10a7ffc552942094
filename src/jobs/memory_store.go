package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/protocol"
)

// Store kept in memory, used when no database is configured
type MemoryStore struct {
	mtx    sync.RWMutex
	lastID int64
	jobs   map[int64]*Job
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[int64]*Job)}
}

func clone(job *Job) (out *Job, err error) {
	out = new(Job)
	*out = *job
	out.CompletedSteps = append([]string(nil), job.CompletedSteps...)
	if job.Batch != nil {
		out.Batch, err = job.Batch.Clone()
	}
	return
}

func (self *MemoryStore) Create(ctx context.Context, batch *batches.Batch) (job *Job, err error) {
	owned, err := batch.Clone()
	if err != nil {
		return
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.lastID++
	now := time.Now().UTC()
	stored := &Job{
		ID:        self.lastID,
		BatchID:   batch.ID,
		AccessKey: newAccessKey(),
		Status:    protocol.StatusNotStarted,
		Batch:     owned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	self.jobs[stored.ID] = stored

	return clone(stored)
}

func (self *MemoryStore) Get(ctx context.Context, id int64) (*Job, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	job, ok := self.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(job)
}

func (self *MemoryStore) FindByBatchID(ctx context.Context, batchID int64) (*Job, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	var latest *Job
	for _, job := range self.jobs {
		if job.BatchID == batchID && (latest == nil || job.ID > latest.ID) {
			latest = job
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return clone(latest)
}

func (self *MemoryStore) modify(id int64, f func(job *Job)) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	job, ok := self.jobs[id]
	if !ok {
		return ErrNotFound
	}
	f(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (self *MemoryStore) UpdateStatus(ctx context.Context, id int64, status protocol.Status) error {
	return self.modify(id, func(job *Job) {
		job.Status = status
	})
}

func (self *MemoryStore) MarkStepCompleted(ctx context.Context, id int64, step string) error {
	return self.modify(id, func(job *Job) {
		job.CompletedSteps = append(job.CompletedSteps, step)
	})
}

func (self *MemoryStore) SoftDelete(ctx context.Context, id int64) error {
	return self.modify(id, func(job *Job) {
		job.Batch = nil
		job.Deleted = true
	})
}
