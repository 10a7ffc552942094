package messages

import (
	"context"
	"fmt"
	"sync"
)

// Append only store of messages, keyed by subject and group
type Log interface {
	Append(ctx context.Context, subjectID int64, group Group, msgs ...Message) error
	List(ctx context.Context, subjectID int64, group Group) ([]Message, error)
	Purge(ctx context.Context, subjectID int64, group Group) error
}

func validate(msgs []Message) error {
	for _, m := range msgs {
		if !IsKnownLevel(m.Level) {
			return fmt.Errorf("%w: %s", ErrUnknownLevel, m.Level)
		}
	}
	return nil
}

// Log kept in memory, used when no database is configured
type MemoryLog struct {
	mtx     sync.RWMutex
	entries []Message
}

func NewMemoryLog() *MemoryLog {
	return new(MemoryLog)
}

func (self *MemoryLog) Append(ctx context.Context, subjectID int64, group Group, msgs ...Message) error {
	err := validate(msgs)
	if err != nil {
		return err
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	for _, m := range msgs {
		m.SubjectID = subjectID
		m.Group = group
		self.entries = append(self.entries, m)
	}
	return nil
}

func (self *MemoryLog) List(ctx context.Context, subjectID int64, group Group) (out []Message, err error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	for _, m := range self.entries {
		if m.SubjectID == subjectID && (group == "" || m.Group == group) {
			out = append(out, m)
		}
	}
	return
}

func (self *MemoryLog) Purge(ctx context.Context, subjectID int64, group Group) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	kept := self.entries[:0]
	for _, m := range self.entries {
		if m.SubjectID == subjectID && (group == "" || m.Group == group) {
			continue
		}
		kept = append(kept, m)
	}
	self.entries = kept
	return nil
}
