package messages

import (
	"context"

	"github.com/warp-contracts/stager/src/utils/model"
	"gorm.io/gorm"
)

// Log persisted in the messages table
type DBLog struct {
	db *gorm.DB
}

func NewDBLog(db *gorm.DB) *DBLog {
	return &DBLog{db: db}
}

func (self *DBLog) Append(ctx context.Context, subjectID int64, group Group, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}

	err := validate(msgs)
	if err != nil {
		return err
	}

	rows := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, model.Message{
			SubjectID: subjectID,
			Group:     string(group),
			Level:     string(m.Level),
			Text:      m.Text,
			Code:      m.Code,
			Item:      m.Item,
		})
	}

	return self.db.WithContext(ctx).Create(&rows).Error
}

func (self *DBLog) List(ctx context.Context, subjectID int64, group Group) (out []Message, err error) {
	var rows []model.Message
	query := self.db.WithContext(ctx).
		Where("subject_id = ?", subjectID)
	if group != "" {
		query = query.Where("group_name = ?", string(group))
	}
	err = query.Order("id ASC").Find(&rows).Error
	if err != nil {
		return
	}

	out = make([]Message, 0, len(rows))
	for _, row := range rows {
		out = append(out, Message{
			SubjectID: row.SubjectID,
			Group:     Group(row.Group),
			Level:     Level(row.Level),
			Text:      row.Text,
			Code:      row.Code,
			Item:      row.Item,
		})
	}
	return
}

func (self *DBLog) Purge(ctx context.Context, subjectID int64, group Group) error {
	query := self.db.WithContext(ctx).
		Where("subject_id = ?", subjectID)
	if group != "" {
		query = query.Where("group_name = ?", string(group))
	}
	return query.Delete(&model.Message{}).Error
}
