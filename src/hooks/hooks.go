package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/messages"
)

// Named point of the pre-flight or import pipeline
type Stage string

const (
	StageBeforeStore  Stage = "before_store"
	StageAfterStore   Stage = "after_store"
	StageBeforeVerify Stage = "before_verify"
	StageBeforeImport Stage = "before_import"
	StageAfterImport  Stage = "after_import"
)

// Fired after a content category has been verified
func AfterVerify(category string) Stage {
	return Stage("after_verify_" + category)
}

// Verifies the custom data of one add-on
func Verify(addon string) Stage {
	return Stage("verify_" + addon)
}

// Imports the custom data of one add-on
func Import(addon string) Stage {
	return Stage("import_" + addon)
}

// State passed to extensions
type Context struct {
	Stage Stage
	Batch *batches.Batch

	// Set for category and add-on stages
	Category string
	Addon    string
	Data     json.RawMessage

	// Messages reported by extensions
	Messages []messages.Message
}

func (self *Context) Add(msgs ...messages.Message) {
	self.Messages = append(self.Messages, msgs...)
}

// Implemented by third party code hooking into the pipeline
type Extension interface {
	Before(ctx context.Context, hc *Context) error
	After(ctx context.Context, hc *Context, result any) error
}

// Adapts plain functions to Extension, nil functions are skipped
type Funcs struct {
	BeforeFunc func(ctx context.Context, hc *Context) error
	AfterFunc  func(ctx context.Context, hc *Context, result any) error
}

func (self Funcs) Before(ctx context.Context, hc *Context) error {
	if self.BeforeFunc == nil {
		return nil
	}
	return self.BeforeFunc(ctx, hc)
}

func (self Funcs) After(ctx context.Context, hc *Context, result any) error {
	if self.AfterFunc == nil {
		return nil
	}
	return self.AfterFunc(ctx, hc, result)
}

// Maps stages to extensions, invoked in registration order
type Registry struct {
	mtx    sync.RWMutex
	stages map[Stage][]Extension
}

func NewRegistry() *Registry {
	return &Registry{stages: make(map[Stage][]Extension)}
}

func (self *Registry) Register(stage Stage, ext Extension) *Registry {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.stages[stage] = append(self.stages[stage], ext)
	return self
}

// True if anything is registered for the stage
func (self *Registry) Has(stage Stage) bool {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return len(self.stages[stage]) > 0
}

func (self *Registry) get(stage Stage) []Extension {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return append([]Extension(nil), self.stages[stage]...)
}

// Runs Before of every extension of the stage. Stops at the first error.
func (self *Registry) Before(ctx context.Context, stage Stage, hc *Context) error {
	hc.Stage = stage
	for i, ext := range self.get(stage) {
		err := ext.Before(ctx, hc)
		if err != nil {
			return fmt.Errorf("%s extension #%d: %w", stage, i, err)
		}
	}
	return nil
}

// Runs After of every extension of the stage. Stops at the first error.
func (self *Registry) After(ctx context.Context, stage Stage, hc *Context, result any) error {
	hc.Stage = stage
	for i, ext := range self.get(stage) {
		err := ext.After(ctx, hc, result)
		if err != nil {
			return fmt.Errorf("%s extension #%d: %w", stage, i, err)
		}
	}
	return nil
}

// Before followed by After, used for add-on handlers
func (self *Registry) Run(ctx context.Context, stage Stage, hc *Context) error {
	err := self.Before(ctx, stage, hc)
	if err != nil {
		return err
	}
	return self.After(ctx, stage, hc, nil)
}
