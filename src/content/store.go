package content

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound    = errors.New("content record not found")
	ErrMissingGUID = errors.New("content record has no guid")
)

type Kind string

const (
	KindPost       Kind = "post"
	KindAttachment Kind = "attachment"
	KindAccount    Kind = "account"
)

const (
	StatusDraft   = "draft"
	StatusPublish = "publish"
)

// Generic production side content item: a post, attachment or account
type Record struct {
	ID       int64
	GUID     string
	Kind     Kind
	ParentID int64
	Status   string

	// Kind specific fields
	Data json.RawMessage
}

// Persistence layer of the host platform
type Store interface {
	// Soft deleted records are not found
	FindByGUID(ctx context.Context, guid string) (*Record, error)

	// Insert or update keyed by GUID, assigns the id
	Upsert(ctx context.Context, r *Record) error

	// Soft delete
	Delete(ctx context.Context, r *Record) error

	// Empty string if the key is not set
	GetMeta(ctx context.Context, id int64, key string) (string, error)
	SetMeta(ctx context.Context, id int64, key, value string) error
}
