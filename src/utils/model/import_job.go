package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	TableImportJob = "import_jobs"
)

type ImportJob struct {
	ID      int64 `gorm:"primaryKey"`
	BatchID int64 `gorm:"index; not null"`

	// Capability token of the background importer
	AccessKey string `gorm:"not null"`

	// 0 not started, 1 running, 2 failed, 3 succeeded
	Status int `gorm:"not null"`

	// Owned copy of the imported batch, cleared on soft delete
	Payload datatypes.JSON

	// Import steps that already finished
	CompletedSteps pq.StringArray `gorm:"type:text[]"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Soft deleted jobs keep their status
	DeletedAt *time.Time
}

func (ImportJob) TableName() string {
	return TableImportJob
}
