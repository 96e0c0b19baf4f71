package event

import (
	"context"
	"formflow/persistence"

	"github.com/jinzhu/gorm"
)

var (
	EventPersistCreateFunc = eventPersistCreate
	QueryEventsFunc        = QueryEvents
)

type EventQuery struct {
	SourceType string `form:"sourceType"`
	SourceId   string `form:"sourceId"`
}

func eventPersistCreate(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

// QueryEvents lists the recorded events of a source, oldest first
func QueryEvents(ctx context.Context, query EventQuery) ([]EventRecord, error) {
	q := persistence.ActiveDataSourceManager.GormDB(ctx).Model(&EventRecord{})
	if query.SourceType != "" {
		q = q.Where("source_type = ?", query.SourceType)
	}
	if query.SourceId != "" {
		q = q.Where("source_id = ?", query.SourceId)
	}
	records := []EventRecord{}
	if err := q.Order("timestamp ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
