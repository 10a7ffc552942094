package batches

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("batch not found")
	ErrMissingGUID   = errors.New("batch has no guid")
	ErrDuplicateGUID = errors.New("batch with this guid already exists")
)

// Persistence of batches on the receiving side
type Store interface {
	Get(ctx context.Context, id int64) (*Batch, error)
	FindByGUID(ctx context.Context, guid string) (*Batch, error)

	// Assigns the id
	Insert(ctx context.Context, b *Batch) error
	Update(ctx context.Context, b *Batch) error

	// Last fully verified category, empty if pre-flight is not in progress
	GetCursor(ctx context.Context, id int64) (string, error)
	// Empty cursor clears it
	SetCursor(ctx context.Context, id int64, cursor string) error

	// Digest of the content that passed pre-flight
	GetDigest(ctx context.Context, id int64) (string, error)
	SetDigest(ctx context.Context, id int64, digest string) error
}

// Inserts the batch or, when the GUID is already known, updates the existing record in place.
// The id of the existing record is written onto the batch.
func Upsert(ctx context.Context, store Store, b *Batch) (existed bool, err error) {
	if b.GUID == "" {
		return false, ErrMissingGUID
	}

	existing, err := store.FindByGUID(ctx, b.GUID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return
	}

	if existing != nil {
		b.ID = existing.ID
		b.CreatedAt = existing.CreatedAt
		return true, store.Update(ctx, b)
	}

	b.ID = 0
	return false, store.Insert(ctx, b)
}
