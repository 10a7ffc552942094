package content

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Caches GUID lookups of another store. Writes go through and invalidate the entry.
type CachedStore struct {
	Store
	cache *cache.Cache
}

func NewCachedStore(store Store, expiration time.Duration) *CachedStore {
	return &CachedStore{
		Store: store,
		cache: cache.New(expiration, 2*expiration),
	}
}

func (self *CachedStore) FindByGUID(ctx context.Context, guid string) (*Record, error) {
	if v, ok := self.cache.Get(guid); ok {
		return copyRecord(v.(*Record)), nil
	}

	r, err := self.Store.FindByGUID(ctx, guid)
	if err != nil {
		return nil, err
	}

	self.cache.SetDefault(guid, copyRecord(r))
	return r, nil
}

func (self *CachedStore) Upsert(ctx context.Context, r *Record) error {
	self.cache.Delete(r.GUID)
	return self.Store.Upsert(ctx, r)
}

func (self *CachedStore) Delete(ctx context.Context, r *Record) error {
	self.cache.Delete(r.GUID)
	return self.Store.Delete(ctx, r)
}
