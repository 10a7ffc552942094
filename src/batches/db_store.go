package batches

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/warp-contracts/stager/src/utils/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store persisted in the batches table
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func toRow(b *Batch) (row *model.Batch, err error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return
	}
	row = &model.Batch{
		ID:        b.ID,
		GUID:      b.GUID,
		Title:     b.Title,
		Status:    b.Status,
		Payload:   datatypes.JSON(payload),
		CreatedAt: b.CreatedAt,
	}
	if row.Status == "" {
		row.Status = StatusDraft
	}
	return
}

func fromRow(row *model.Batch) (b *Batch, err error) {
	b = new(Batch)
	if len(row.Payload) > 0 {
		err = json.Unmarshal(row.Payload, b)
		if err != nil {
			return
		}
	}
	b.ID = row.ID
	b.GUID = row.GUID
	b.CreatedAt = row.CreatedAt
	b.ModifiedAt = row.UpdatedAt
	return
}

func (self *DBStore) find(ctx context.Context, query string, args ...any) (row *model.Batch, err error) {
	row = new(model.Batch)
	err = self.db.WithContext(ctx).Where(query, args...).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return
}

func (self *DBStore) Get(ctx context.Context, id int64) (*Batch, error) {
	row, err := self.find(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	return fromRow(row)
}

func (self *DBStore) FindByGUID(ctx context.Context, guid string) (*Batch, error) {
	row, err := self.find(ctx, "guid = ?", guid)
	if err != nil {
		return nil, err
	}
	return fromRow(row)
}

func (self *DBStore) Insert(ctx context.Context, b *Batch) (err error) {
	row, err := toRow(b)
	if err != nil {
		return
	}
	row.ID = 0

	err = self.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateGUID
	}
	if err != nil {
		return
	}

	b.ID = row.ID
	b.CreatedAt = row.CreatedAt
	b.ModifiedAt = row.UpdatedAt
	return
}

func (self *DBStore) Update(ctx context.Context, b *Batch) (err error) {
	row, err := toRow(b)
	if err != nil {
		return
	}

	result := self.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("id = ?", b.ID).
		Updates(map[string]any{
			"guid":    row.GUID,
			"title":   row.Title,
			"status":  row.Status,
			"payload": row.Payload,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return
}

func (self *DBStore) getColumn(ctx context.Context, id int64, column string) (string, error) {
	var value sql.NullString
	result := self.db.WithContext(ctx).
		Model(&model.Batch{}).
		Select(column).
		Where("id = ?", id).
		Limit(1).
		Scan(&value)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return value.String, nil
}

func (self *DBStore) setColumn(ctx context.Context, id int64, column string, value string) error {
	result := self.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("id = ?", id).
		Update(column, sql.NullString{String: value, Valid: value != ""})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (self *DBStore) GetCursor(ctx context.Context, id int64) (string, error) {
	return self.getColumn(ctx, id, "preflight_cursor")
}

func (self *DBStore) SetCursor(ctx context.Context, id int64, cursor string) error {
	return self.setColumn(ctx, id, "preflight_cursor", cursor)
}

func (self *DBStore) GetDigest(ctx context.Context, id int64) (string, error) {
	return self.getColumn(ctx, id, "preflight_digest")
}

func (self *DBStore) SetDigest(ctx context.Context, id int64, digest string) error {
	return self.setColumn(ctx, id, "preflight_digest", digest)
}
