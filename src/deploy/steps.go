package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/content"
	"github.com/warp-contracts/stager/src/hooks"
	"github.com/warp-contracts/stager/src/messages"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Import steps, executed in this order
const (
	StepAttachments = "attachments"
	StepAccounts    = "accounts"
	StepPosts       = "posts"
	StepPostMeta    = "post_meta"
	StepParents     = "parents"
	StepCustomData  = "custom_data"
	StepPublish     = "publish"
	StepTeardown    = "teardown"
)

// State of one import run
type run struct {
	importer *Importer
	batch    *batches.Batch

	// GUID -> production id of everything imported in this run
	ids map[string]int64

	// Production records of imported posts
	posts map[string]*content.Record

	messages []messages.Message
}

func (self *run) add(msgs ...messages.Message) {
	self.messages = append(self.messages, msgs...)
}

func (self *run) hasErrors() bool {
	return messages.HasErrors(self.messages)
}

type postData struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type attachmentData struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	MimeType string `json:"mime_type,omitempty"`
}

type accountData struct {
	Login       string `json:"login"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

func marshal(v any) json.RawMessage {
	buf, _ := json.Marshal(v)
	return buf
}

// Production id of the GUID, looked up in this run first and on production second
func (self *run) resolve(ctx context.Context, guid string) (int64, error) {
	if id, ok := self.ids[guid]; ok {
		return id, nil
	}

	r, err := self.importer.content.FindByGUID(ctx, guid)
	if err != nil {
		return 0, err
	}
	self.ids[guid] = r.ID
	return r.ID, nil
}

func (self *run) upsert(ctx context.Context, r *content.Record) bool {
	err := self.importer.content.Upsert(ctx, r)
	if err != nil {
		self.add(messages.Error(fmt.Sprintf("Failed to import %s %s: %s", r.Kind, r.GUID, err)).WithItem(r.GUID))
		return false
	}
	self.ids[r.GUID] = r.ID
	self.importer.monitor.GetReport().Importer.State.ItemsImported.Inc()
	return true
}

func (self *run) importAttachments(ctx context.Context) error {
	for _, a := range self.batch.Attachments {
		self.upsert(ctx, &content.Record{
			GUID:   a.GUID,
			Kind:   content.KindAttachment,
			Status: content.StatusPublish,
			Data:   marshal(attachmentData{URL: a.URL, Title: a.Title, MimeType: a.MimeType}),
		})
	}
	return nil
}

func (self *run) importAccounts(ctx context.Context) error {
	for _, a := range self.batch.Accounts {
		self.upsert(ctx, &content.Record{
			GUID:   a.GUID,
			Kind:   content.KindAccount,
			Status: content.StatusPublish,
			Data:   marshal(accountData{Login: a.Login, Email: a.Email, DisplayName: a.DisplayName, Role: a.Role}),
		})
	}
	return nil
}

// First pass: every post as a draft without its parent
func (self *run) importPosts(ctx context.Context) error {
	for _, p := range self.batch.Posts {
		r := &content.Record{
			GUID:   p.GUID,
			Kind:   content.KindPost,
			Status: content.StatusDraft,
			Data:   marshal(postData{Type: p.Type, Title: p.Title, Content: p.Content}),
		}
		if self.upsert(ctx, r) {
			self.posts[p.GUID] = r
		}
	}
	return nil
}

// Meta values under relation keys reference other items by GUID
func (self *run) importPostMeta(ctx context.Context) error {
	for _, p := range self.batch.Posts {
		r, ok := self.posts[p.GUID]
		if !ok {
			continue
		}

		keys := maps.Keys(p.Meta)
		slices.Sort(keys)

		for _, key := range keys {
			value := p.Meta[key]
			if slices.Contains(self.importer.relationMetaKeys, key) && value != "" {
				id, err := self.resolve(ctx, value)
				if errors.Is(err, content.ErrNotFound) {
					self.add(messages.Error(fmt.Sprintf("Post %s references %s in %s, which does not exist on production.", p.GUID, value, key)).WithItem(p.GUID))
					continue
				}
				if err != nil {
					return err
				}
				value = fmt.Sprintf("%d", id)
			}

			err := self.importer.content.SetMeta(ctx, r.ID, key, value)
			if err != nil {
				self.add(messages.Error(fmt.Sprintf("Failed to set meta %s of post %s: %s", key, p.GUID, err)).WithItem(p.GUID))
			}
		}
	}
	return nil
}

// Second pass: all parents have production ids now
func (self *run) importParents(ctx context.Context) error {
	for _, p := range self.batch.Posts {
		r, ok := self.posts[p.GUID]
		if !ok || p.ParentGUID == "" {
			continue
		}

		parentID, err := self.resolve(ctx, p.ParentGUID)
		if errors.Is(err, content.ErrNotFound) {
			self.add(messages.Error(fmt.Sprintf("Parent %s of post %s does not exist on production.", p.ParentGUID, p.GUID)).WithItem(p.GUID))
			continue
		}
		if err != nil {
			return err
		}

		r.ParentID = parentID
		self.upsert(ctx, r)
	}

	for _, a := range self.batch.Attachments {
		if a.ParentGUID == "" {
			continue
		}
		if _, ok := self.ids[a.GUID]; !ok {
			continue
		}

		parentID, err := self.resolve(ctx, a.ParentGUID)
		if err != nil {
			self.add(messages.Warning(fmt.Sprintf("Attachment %s is not attached, parent %s is missing.", a.GUID, a.ParentGUID)).WithItem(a.GUID))
			continue
		}

		self.upsert(ctx, &content.Record{
			GUID:     a.GUID,
			Kind:     content.KindAttachment,
			ParentID: parentID,
			Status:   content.StatusPublish,
			Data:     marshal(attachmentData{URL: a.URL, Title: a.Title, MimeType: a.MimeType}),
		})
	}
	return nil
}

// Dispatched once per add-on
func (self *run) importCustomData(ctx context.Context) error {
	addons := maps.Keys(self.batch.CustomData)
	slices.Sort(addons)

	for _, addon := range addons {
		stage := hooks.Import(addon)
		if !self.importer.hooks.Has(stage) {
			self.add(messages.Warning(fmt.Sprintf("No handler registered for add-on %q, its data was skipped.", addon)))
			continue
		}

		hc := &hooks.Context{Batch: self.batch, Category: batches.CategoryCustomData, Addon: addon, Data: self.batch.CustomData[addon]}
		err := self.importer.hooks.Run(ctx, stage, hc)
		if err != nil {
			hc.Add(messages.Error(fmt.Sprintf("Failed to import %s data: %s", addon, err)))
		}
		self.add(hc.Messages...)
	}
	return nil
}

// Flips posts from draft to their status on staging
func (self *run) publish(ctx context.Context) error {
	for _, p := range self.batch.Posts {
		r, ok := self.posts[p.GUID]
		if !ok || p.Status != batches.StatusPublish {
			continue
		}

		r.Status = content.StatusPublish
		self.upsert(ctx, r)
	}
	return nil
}

func (self *run) teardown(ctx context.Context) error {
	self.ids = nil
	self.posts = nil
	return nil
}
