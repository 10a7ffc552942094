package messages

import (
	"errors"
	"sync"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// Phase a message stream belongs to. Empty group means all groups when reading or purging.
type Group string

const (
	GroupPreflight Group = "preflight"
	GroupDeploy    Group = "deploy"
)

var ErrUnknownLevel = errors.New("unknown message level")

var (
	mtx    sync.RWMutex
	levels = map[Level]struct{}{
		LevelInfo:    {},
		LevelWarning: {},
		LevelError:   {},
		LevelSuccess: {},
	}
)

// Makes an additional level acceptable by every log
func RegisterLevel(level Level) {
	mtx.Lock()
	defer mtx.Unlock()
	levels[level] = struct{}{}
}

func IsKnownLevel(level Level) bool {
	mtx.RLock()
	defer mtx.RUnlock()
	_, ok := levels[level]
	return ok
}

// One diagnostic record. Only level, text and code travel over the wire.
type Message struct {
	SubjectID int64  `json:"-"`
	Group     Group  `json:"-"`
	Level     Level  `json:"level"`
	Text      string `json:"message"`
	Code      int    `json:"code,omitempty"`

	// GUID of the content item the message concerns, if any
	Item string `json:"item,omitempty"`
}

func New(level Level, text string) Message {
	return Message{Level: level, Text: text}
}

func Error(text string) Message {
	return New(LevelError, text)
}

func Warning(text string) Message {
	return New(LevelWarning, text)
}

func Info(text string) Message {
	return New(LevelInfo, text)
}

func Success(text string) Message {
	return New(LevelSuccess, text)
}

func (self Message) WithCode(code int) Message {
	self.Code = code
	return self
}

func (self Message) WithItem(guid string) Message {
	self.Item = guid
	return self
}

func (self Message) IsError() bool {
	return self.Level == LevelError
}

// True if at least one message has the error level
func HasErrors(msgs []Message) bool {
	for _, m := range msgs {
		if m.IsError() {
			return true
		}
	}
	return false
}

// Messages with the given level
func Filter(msgs []Message, level Level) (out []Message) {
	for _, m := range msgs {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return
}
