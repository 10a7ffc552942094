package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/warp-contracts/stager/src/batches"
	"github.com/warp-contracts/stager/src/protocol"
	"github.com/warp-contracts/stager/src/utils/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store persisted in the import_jobs table
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func fromRow(row *model.ImportJob) (job *Job, err error) {
	job = &Job{
		ID:             row.ID,
		BatchID:        row.BatchID,
		AccessKey:      row.AccessKey,
		Status:         protocol.Status(row.Status),
		CompletedSteps: []string(row.CompletedSteps),
		Deleted:        row.DeletedAt != nil,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if len(row.Payload) > 0 && string(row.Payload) != "null" {
		job.Batch = new(batches.Batch)
		err = json.Unmarshal(row.Payload, job.Batch)
	}
	return
}

func (self *DBStore) Create(ctx context.Context, batch *batches.Batch) (job *Job, err error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return
	}

	row := &model.ImportJob{
		BatchID:        batch.ID,
		AccessKey:      newAccessKey(),
		Status:         int(protocol.StatusNotStarted),
		Payload:        datatypes.JSON(payload),
		CompletedSteps: pq.StringArray{},
	}
	err = self.db.WithContext(ctx).Create(row).Error
	if err != nil {
		return
	}

	return fromRow(row)
}

func (self *DBStore) first(ctx context.Context, query *gorm.DB) (*Job, error) {
	row := new(model.ImportJob)
	err := query.WithContext(ctx).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row)
}

func (self *DBStore) Get(ctx context.Context, id int64) (*Job, error) {
	return self.first(ctx, self.db.Where("id = ?", id))
}

func (self *DBStore) FindByBatchID(ctx context.Context, batchID int64) (*Job, error) {
	return self.first(ctx, self.db.Where("batch_id = ?", batchID).Order("id DESC"))
}

func (self *DBStore) update(ctx context.Context, id int64, values map[string]any) error {
	values["updated_at"] = time.Now().UTC()
	result := self.db.WithContext(ctx).
		Model(&model.ImportJob{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (self *DBStore) UpdateStatus(ctx context.Context, id int64, status protocol.Status) error {
	return self.update(ctx, id, map[string]any{"status": int(status)})
}

func (self *DBStore) MarkStepCompleted(ctx context.Context, id int64, step string) error {
	return self.update(ctx, id, map[string]any{
		"completed_steps": gorm.Expr("array_append(completed_steps, ?)", step),
	})
}

func (self *DBStore) SoftDelete(ctx context.Context, id int64) error {
	return self.update(ctx, id, map[string]any{
		"payload":    nil,
		"deleted_at": time.Now().UTC(),
	})
}
