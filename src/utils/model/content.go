package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TableContentRecord = "content_records"
	TableContentMeta   = "content_meta"
)

// Production side content: posts, attachments and accounts
type ContentRecord struct {
	ID       int64  `gorm:"primaryKey"`
	GUID     string `gorm:"uniqueIndex; not null"`
	Kind     string `gorm:"not null"`
	ParentID int64
	Status   string `gorm:"not null"`
	Data     datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
}

func (ContentRecord) TableName() string {
	return TableContentRecord
}

type ContentMeta struct {
	RecordID int64  `gorm:"primaryKey"`
	Key      string `gorm:"primaryKey"`
	Value    string
}

func (ContentMeta) TableName() string {
	return TableContentMeta
}
