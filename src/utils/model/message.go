package model

import (
	"time"
)

const (
	TableMessage = "messages"
)

// Append only, rows are removed only in bulk by (subject_id, group)
type Message struct {
	ID        int64  `gorm:"primaryKey"`
	SubjectID int64  `gorm:"index:idx_messages_subject; not null"`
	Group     string `gorm:"column:group_name; index:idx_messages_subject; not null"`
	Level     string `gorm:"not null"`
	Text      string `gorm:"not null"`
	Code      int
	Item      string
	CreatedAt time.Time
}

func (Message) TableName() string {
	return TableMessage
}
