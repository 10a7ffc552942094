package content

import (
	"context"
	"errors"
	"time"

	"github.com/warp-contracts/stager/src/utils/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persisted in the content_records and content_meta tables
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (self *DBStore) FindByGUID(ctx context.Context, guid string) (*Record, error) {
	var row model.ContentRecord
	err := self.db.WithContext(ctx).
		Where("guid = ? AND deleted_at IS NULL", guid).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &Record{
		ID:       row.ID,
		GUID:     row.GUID,
		Kind:     Kind(row.Kind),
		ParentID: row.ParentID,
		Status:   row.Status,
		Data:     []byte(row.Data),
	}, nil
}

func (self *DBStore) Upsert(ctx context.Context, r *Record) error {
	if r.GUID == "" {
		return ErrMissingGUID
	}

	row := model.ContentRecord{
		GUID:     r.GUID,
		Kind:     string(r.Kind),
		ParentID: r.ParentID,
		Status:   r.Status,
		Data:     datatypes.JSON(r.Data),
	}

	err := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guid"}},
			DoUpdates: clause.Assignments(map[string]any{
				"kind":       row.Kind,
				"parent_id":  row.ParentID,
				"status":     row.Status,
				"data":       row.Data,
				"updated_at": time.Now().UTC(),
				"deleted_at": nil,
			}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	// On conflict postgres returns the id of the updated row
	r.ID = row.ID
	return nil
}

func (self *DBStore) Delete(ctx context.Context, r *Record) error {
	result := self.db.WithContext(ctx).
		Model(&model.ContentRecord{}).
		Where("id = ?", r.ID).
		Update("deleted_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (self *DBStore) GetMeta(ctx context.Context, id int64, key string) (string, error) {
	var row model.ContentMeta
	err := self.db.WithContext(ctx).
		Where("record_id = ? AND key = ?", id, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return row.Value, err
}

func (self *DBStore) SetMeta(ctx context.Context, id int64, key, value string) error {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&model.ContentMeta{RecordID: id, Key: key, Value: value}).Error
}
