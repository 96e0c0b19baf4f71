package submission

import (
	"context"
	"formflow/common"
	"formflow/event"
	"formflow/persistence"
	"formflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var idWorker = common.NewIdWorker()

// GormStateStore keeps submission states in the database.
// A swap updates the row only while it still holds the expected state and records the step with it.
type GormStateStore struct{}

func (GormStateStore) CurrentState(ctx context.Context, entityID string) (string, error) {
	id, err := types.ParseID(entityID)
	if err != nil {
		return "", err
	}
	var s Submission
	if err := persistence.ActiveDataSourceManager.GormDB(ctx).Where(&Submission{ID: id}).First(&s).Error; err != nil {
		return "", err
	}
	return s.CurrentStateCode, nil
}

func (GormStateStore) CompareAndSwapState(ctx context.Context, change StateChange) (bool, error) {
	id, err := types.ParseID(change.EntityID)
	if err != nil {
		return false, err
	}
	creatorID, _ := types.ParseID(string(change.Actor.ID))
	identity := &session.Identity{ID: creatorID, Name: change.Actor.Name}

	swapped := false
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	err = db.Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&Submission{}).Where("id = ? AND current_state = ?", id, change.From).
			Updates(map[string]interface{}{"current_state": change.To, "update_time": change.Time})
		if err := query.Error; err != nil {
			return err
		}
		if query.RowsAffected != 1 {
			return nil
		}

		step := &TransitionStep{ID: common.NextId(idWorker), SubmissionID: id, FromState: change.From, ToState: change.To,
			Action: change.Action, Comment: change.Comment, CreatorID: creatorID, CreatorName: change.Actor.Name, CreateTime: change.Time}
		if err := tx.Create(step).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEventFunc(event.SourceTypeSubmission, change.EntityID, change.EntityDesc, event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "current_state", PropertyDesc: "State",
				OldValue: change.From, OldValueDesc: change.From, NewValue: change.To, NewValueDesc: change.To}},
			nil, identity, change.Time, tx)
		if err != nil {
			return err
		}
		swapped = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if ev != nil {
		event.InvokeHandlersFunc(ev)
	}
	return swapped, nil
}
