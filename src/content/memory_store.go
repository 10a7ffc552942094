package content

import (
	"context"
	"sync"
)

type memoryRecord struct {
	record  Record
	deleted bool
	meta    map[string]string
}

// Store kept in memory, used when no database is configured
type MemoryStore struct {
	mtx     sync.RWMutex
	lastID  int64
	byID    map[int64]*memoryRecord
	idByKey map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[int64]*memoryRecord),
		idByKey: make(map[string]int64),
	}
}

func copyRecord(r *Record) *Record {
	out := *r
	out.Data = append([]byte(nil), r.Data...)
	return &out
}

func (self *MemoryStore) FindByGUID(ctx context.Context, guid string) (*Record, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	id, ok := self.idByKey[guid]
	if !ok || self.byID[id].deleted {
		return nil, ErrNotFound
	}
	return copyRecord(&self.byID[id].record), nil
}

func (self *MemoryStore) Upsert(ctx context.Context, r *Record) error {
	if r.GUID == "" {
		return ErrMissingGUID
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	id, ok := self.idByKey[r.GUID]
	if ok {
		r.ID = id
		stored := self.byID[id]
		stored.record = *copyRecord(r)
		stored.deleted = false
		return nil
	}

	self.lastID++
	r.ID = self.lastID
	self.byID[r.ID] = &memoryRecord{record: *copyRecord(r), meta: make(map[string]string)}
	self.idByKey[r.GUID] = r.ID
	return nil
}

func (self *MemoryStore) Delete(ctx context.Context, r *Record) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	stored, ok := self.byID[r.ID]
	if !ok {
		return ErrNotFound
	}
	stored.deleted = true
	return nil
}

func (self *MemoryStore) GetMeta(ctx context.Context, id int64, key string) (string, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	stored, ok := self.byID[id]
	if !ok {
		return "", ErrNotFound
	}
	return stored.meta[key], nil
}

func (self *MemoryStore) SetMeta(ctx context.Context, id int64, key, value string) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	stored, ok := self.byID[id]
	if !ok {
		return ErrNotFound
	}
	stored.meta[key] = value
	return nil
}
