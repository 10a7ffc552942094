package preflight

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/messages"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/config"
	"github.com/warp-contracts/stager/src/utils/logger"
	"github.com/warp-contracts/stager/src/utils/monitoring"
	monitor_stager "github.com/warp-contracts/stager/src/utils/monitoring/stager"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Resumable, chunked verification of a batch. One category is verified per call,
// progress is kept in the batch's cursor.
type Verifier struct {
	log     *logrus.Entry
	monitor monitoring.Monitor

	categories []string
	checks     map[string][]Check

	batches    batches.Store
	messageLog messages.Log
	hooks      *hooks.Registry
}

func NewVerifier(config *config.Config) (self *Verifier) {
	self = new(Verifier)
	self.log = logger.NewSublogger("preflight")
	self.categories = config.Preflight.Categories
	self.checks = make(map[string][]Check)
	self.hooks = hooks.NewRegistry()
	self.monitor = monitor_stager.NewMonitor(config)
	return
}

func (self *Verifier) WithBatchStore(v batches.Store) *Verifier {
	self.batches = v
	return self
}

func (self *Verifier) WithMessageLog(v messages.Log) *Verifier {
	self.messageLog = v
	return self
}

func (self *Verifier) WithHooks(v *hooks.Registry) *Verifier {
	self.hooks = v
	return self
}

func (self *Verifier) WithMonitor(v monitoring.Monitor) *Verifier {
	self.monitor = v
	return self
}

// Appends a check to the category
func (self *Verifier) WithCheck(category string, check Check) *Verifier {
	self.checks[category] = append(self.checks[category], check)
	return self
}

// Registers the built-in checks
func (self *Verifier) WithDefaultChecks(store content.Store) *Verifier {
	return self.
		WithCheck(batches.CategoryAttachments, CheckAttachments()).
		WithCheck(batches.CategoryUsers, CheckUsers()).
		WithCheck(batches.CategoryPosts, CheckPosts(store))
}

// Category following the cursor, empty when all categories are done.
// Empty or unknown cursor starts from the first category.
func (self *Verifier) next(cursor string) (next string, last bool) {
	idx := 0
	for i, c := range self.categories {
		if c == cursor {
			idx = i + 1
			break
		}
	}
	if idx >= len(self.categories) {
		return "", true
	}
	return self.categories[idx], idx == len(self.categories)-1
}

// Commits the batch on this environment by GUID and resets its pre-flight state
func (self *Verifier) Store(ctx context.Context, batch *batches.Batch) (out *protocol.StoreResponse, err error) {
	if batch == nil || batch.GUID == "" {
		return &protocol.StoreResponse{Response: *protocol.Failed(messages.Error("Invalid batch!"))}, nil
	}

	hc := &hooks.Context{Batch: batch}
	err = self.hooks.Before(ctx, hooks.StageBeforeStore, hc)
	if err != nil {
		return &protocol.StoreResponse{Response: *protocol.Failed(messages.Error(err.Error()))}, nil
	}

	existed, err := batches.Upsert(ctx, self.batches, batch)
	if err != nil {
		self.monitor.GetReport().Preflight.Errors.DbError.Inc()
		return
	}

	// Messages and progress refer to a superseded version
	err = self.messageLog.Purge(ctx, batch.ID, messages.GroupPreflight)
	if err != nil {
		return
	}
	err = self.batches.SetCursor(ctx, batch.ID, "")
	if err != nil {
		return
	}

	self.log.WithField("id", batch.ID).WithField("guid", batch.GUID).WithField("existed", existed).Info("Batch stored")
	self.monitor.GetReport().Preflight.State.BatchesStored.Inc()

	err = self.hooks.After(ctx, hooks.StageAfterStore, hc, batch.ID)
	if err != nil {
		self.log.WithError(err).Warn("After store extension failed")
	}

	out = &protocol.StoreResponse{
		Response: protocol.Response{
			Status:   protocol.StatusRunning,
			Messages: append([]messages.Message{messages.Info(fmt.Sprintf("Batch stored on production with ID %d.", batch.ID))}, hc.Messages...),
		},
		BatchID: batch.ID,
	}
	return
}

// Verifies the next category of the batch
func (self *Verifier) Verify(ctx context.Context, batchID int64) (out *protocol.Response, err error) {
	if batchID <= 0 {
		return protocol.Failed(messages.Error("No batch ID provided.")), nil
	}

	batch, err := self.batches.Get(ctx, batchID)
	if errors.Is(err, batches.ErrNotFound) {
		return protocol.Failed(messages.Error(fmt.Sprintf("No batch with ID %d found.", batchID))), nil
	}
	if err != nil {
		self.monitor.GetReport().Preflight.Errors.DbError.Inc()
		return
	}

	cursor, err := self.batches.GetCursor(ctx, batchID)
	if err != nil {
		return
	}

	hc := &hooks.Context{Batch: batch}

	if cursor == "" {
		// Fresh run
		err = self.messageLog.Purge(ctx, batchID, messages.GroupPreflight)
		if err != nil {
			return
		}

		err = self.hooks.Before(ctx, hooks.StageBeforeVerify, hc)
		if err != nil {
			hc.Add(messages.Error(err.Error()))
		}
	}

	category, last := self.next(cursor)

	if category != "" {
		// Persisted before the work, a crash leaves the run stuck on this category
		err = self.batches.SetCursor(ctx, batchID, category)
		if err != nil {
			return
		}

		var found []messages.Message
		found, err = self.verifyCategory(ctx, batch, category)
		if err != nil {
			return
		}
		hc.Add(found...)

		hc.Category = category
		err = self.hooks.After(ctx, hooks.AfterVerify(category), hc, found)
		if err != nil {
			hc.Add(messages.Error(err.Error()))
		}

		self.monitor.GetReport().Preflight.State.CategoriesVerified.Inc()
	}

	err = self.messageLog.Append(ctx, batchID, messages.GroupPreflight, hc.Messages...)
	if err != nil {
		return
	}

	// All messages of this run decide the status
	all, err := self.messageLog.List(ctx, batchID, messages.GroupPreflight)
	if err != nil {
		return
	}

	status := protocol.StatusRunning
	if last {
		status = protocol.StatusSucceeded
	}
	if messages.HasErrors(all) {
		status = protocol.StatusFailed
	}

	if status.IsTerminal() {
		err = self.batches.SetCursor(ctx, batchID, "")
		if err != nil {
			return
		}
	}

	if status == protocol.StatusSucceeded {
		var digest string
		digest, err = batch.Digest()
		if err != nil {
			return
		}
		err = self.batches.SetDigest(ctx, batchID, digest)
		if err != nil {
			return
		}
		self.monitor.GetReport().Preflight.State.RunsSucceeded.Inc()
	} else if status == protocol.StatusFailed {
		self.monitor.GetReport().Preflight.State.RunsFailed.Inc()
	}

	self.log.WithField("id", batchID).
		WithField("category", category).
		WithField("status", status.String()).
		Debug("Verified")

	return &protocol.Response{Status: status, Messages: all}, nil
}

func (self *Verifier) verifyCategory(ctx context.Context, batch *batches.Batch, category string) (out []messages.Message, err error) {
	for _, check := range self.checks[category] {
		var found []messages.Message
		found, err = check.Check(ctx, batch)
		if err != nil {
			return
		}
		out = append(out, found...)
	}

	if category != batches.CategoryCustomData {
		return
	}

	// Custom data is verified once per add-on
	addons := maps.Keys(batch.CustomData)
	slices.Sort(addons)

	for _, addon := range addons {
		data := batch.CustomData[addon]
		stage := hooks.Verify(addon)
		if !self.hooks.Has(stage) {
			out = append(out, messages.Warning(fmt.Sprintf("No handler registered for add-on %q, its data will be skipped.", addon)))
			continue
		}

		hc := &hooks.Context{Batch: batch, Category: category, Addon: addon, Data: data}
		err = self.hooks.Run(ctx, stage, hc)
		if err != nil {
			hc.Add(messages.Error(err.Error()))
			err = nil
		}
		out = append(out, hc.Messages...)
	}
	return
}
