package batches

import (
	"context"
	"sync"
	"time"
)

type memoryRecord struct {
	batch  *Batch
	cursor string
	digest string
}

// Store kept in memory, used when no database is configured
type MemoryStore struct {
	mtx     sync.RWMutex
	lastID  int64
	records map[int64]*memoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[int64]*memoryRecord)}
}

func (self *MemoryStore) Get(ctx context.Context, id int64) (*Batch, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	r, ok := self.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.batch.Clone()
}

func (self *MemoryStore) FindByGUID(ctx context.Context, guid string) (*Batch, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	for _, r := range self.records {
		if r.batch.GUID == guid {
			return r.batch.Clone()
		}
	}
	return nil, ErrNotFound
}

func (self *MemoryStore) Insert(ctx context.Context, b *Batch) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	for _, r := range self.records {
		if r.batch.GUID == b.GUID {
			return ErrDuplicateGUID
		}
	}

	self.lastID++
	b.ID = self.lastID
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.ModifiedAt = now

	stored, err := b.Clone()
	if err != nil {
		return
	}
	self.records[b.ID] = &memoryRecord{batch: stored}
	return nil
}

func (self *MemoryStore) Update(ctx context.Context, b *Batch) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	r, ok := self.records[b.ID]
	if !ok {
		return ErrNotFound
	}

	b.ModifiedAt = time.Now().UTC()
	r.batch, err = b.Clone()
	return
}

func (self *MemoryStore) GetCursor(ctx context.Context, id int64) (string, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	r, ok := self.records[id]
	if !ok {
		return "", ErrNotFound
	}
	return r.cursor, nil
}

func (self *MemoryStore) SetCursor(ctx context.Context, id int64, cursor string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	r, ok := self.records[id]
	if !ok {
		return ErrNotFound
	}
	r.cursor = cursor
	return nil
}

func (self *MemoryStore) GetDigest(ctx context.Context, id int64) (string, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	r, ok := self.records[id]
	if !ok {
		return "", ErrNotFound
	}
	return r.digest, nil
}

func (self *MemoryStore) SetDigest(ctx context.Context, id int64, digest string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	r, ok := self.records[id]
	if !ok {
		return ErrNotFound
	}
	r.digest = digest
	return nil
}
