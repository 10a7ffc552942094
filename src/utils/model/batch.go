package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

const (
	TableBatch = "batches"
)

// CREATE UNIQUE INDEX IF NOT EXISTS "idx_batches_guid" ON "batches" ("guid")
type Batch struct {
	ID    int64  `gorm:"primaryKey"`
	GUID  string `gorm:"uniqueIndex; not null; comment:Environment independent identifier, never changes"`
	Title string
	// draft or publish
	Status string `gorm:"not null"`

	// Serialized batch content
	Payload datatypes.JSON

	// Last fully verified category, NULL when no pre-flight is in progress
	PreflightCursor sql.NullString

	// Digest of the payload that last passed pre-flight
	PreflightDigest sql.NullString

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Batch) TableName() string {
	return TableBatch
}
