package batches

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Content categories, in the default verification order
const (
	CategoryAttachments = "attachments"
	CategoryUsers       = "users"
	CategoryPosts       = "posts"
	CategoryCustomData  = "custom_data"
)

const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// Unit of transfer between environments.
// Items reference each other only by GUID, ids are not portable.
type Batch struct {
	// Local id, assigned by the environment that currently owns the record
	ID   int64  `json:"id"`
	GUID string `json:"guid"`

	Title      string    `json:"title"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`

	Posts       []Post       `json:"posts,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Accounts    []Account    `json:"accounts,omitempty"`

	// Add-on name -> opaque add-on payload
	CustomData map[string]json.RawMessage `json:"custom_data,omitempty"`
}

type Post struct {
	GUID       string            `json:"guid"`
	ParentGUID string            `json:"parent_guid,omitempty"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Status     string            `json:"status"`
	Meta       map[string]string `json:"meta,omitempty"`
}

type Attachment struct {
	GUID       string `json:"guid"`
	ParentGUID string `json:"parent_guid,omitempty"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	MimeType   string `json:"mime_type,omitempty"`
}

type Account struct {
	GUID        string `json:"guid"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Hex encoded SHA-256 of the transferred content. Ids and timestamps are excluded.
func (self *Batch) Digest() (string, error) {
	content := struct {
		GUID        string                     `json:"guid"`
		Title       string                     `json:"title"`
		Posts       []Post                     `json:"posts"`
		Attachments []Attachment               `json:"attachments"`
		Accounts    []Account                  `json:"accounts"`
		CustomData  map[string]json.RawMessage `json:"custom_data"`
	}{self.GUID, self.Title, self.Posts, self.Attachments, self.Accounts, self.CustomData}

	buf, err := json.Marshal(content)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// Number of items in the category, custom data counts add-ons
func (self *Batch) Count(category string) int {
	switch category {
	case CategoryAttachments:
		return len(self.Attachments)
	case CategoryUsers:
		return len(self.Accounts)
	case CategoryPosts:
		return len(self.Posts)
	case CategoryCustomData:
		return len(self.CustomData)
	}
	return 0
}

// Finds the post with the given GUID
func (self *Batch) Post(guid string) (*Post, bool) {
	for i := range self.Posts {
		if self.Posts[i].GUID == guid {
			return &self.Posts[i], true
		}
	}
	return nil, false
}

// True if any item of the batch carries the GUID
func (self *Batch) Contains(guid string) bool {
	if _, ok := self.Post(guid); ok {
		return true
	}
	for _, a := range self.Attachments {
		if a.GUID == guid {
			return true
		}
	}
	for _, a := range self.Accounts {
		if a.GUID == guid {
			return true
		}
	}
	return false
}

// Deep copy
func (self *Batch) Clone() (out *Batch, err error) {
	buf, err := json.Marshal(self)
	if err != nil {
		return
	}
	out = new(Batch)
	err = json.Unmarshal(buf, out)
	return
}
