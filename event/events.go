package event

import (
	"formflow/common"
	"formflow/session"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	CreateEventFunc = CreateEvent

	idWorker = common.NewIdWorker()
)

// CreateEvent persists a lifecycle event with the given transaction, handlers are invoked by callers after commit
func CreateEvent(sourceType string, sourceId string, sourceDesc string, category EventCategory,
	updatedProperties []UpdatedProperty, updatedRelations []UpdatedRelation,
	identity *session.Identity, timestamp time.Time, db *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		ID: common.NextId(idWorker),
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,
			UpdatedRelations:  updatedRelations,

			CreatorId:   identity.ID,
			CreatorName: identity.Name,
		},
		Synced:    false,
		Timestamp: timestamp,
	}
	if err := EventPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}
