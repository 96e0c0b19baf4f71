package flow

import (
	"context"
	"errors"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/common"
	"formflow/event"
	"formflow/persistence"
	"formflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	idWorker = common.NewIdWorker()

	CreateFormFunc     = CreateForm
	DetailFormFunc     = DetailForm
	QueryFormsFunc     = QueryForms
	AttachWorkflowFunc = AttachWorkflow
	DetachWorkflowFunc = DetachWorkflow
	LoadFormFunc       = LoadForm
)

type WorkflowAttaching struct {
	WorkflowCode string `json:"workflow_code" binding:"required"`
}

func CreateForm(c *FormCreation, sec *session.Session) (*FormDefinition, error) {
	if !sec.Perms.HasManagePerm(authority.FormManage) {
		return nil, bizerror.ErrForbidden
	}
	form := &FormDefinition{
		ID:          common.NextId(idWorker),
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		CreateTime:  time.Now().Round(time.Millisecond),
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&FormDefinition{}).Where("code = ?", form.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrFormExisted
		}
		if err := tx.Create(form).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEventFunc(event.SourceTypeForm, form.ID.String(), form.Name, event.EventCategoryCreated,
			nil, nil, &sec.Identity, form.CreateTime, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return form, nil
}

func DetailForm(id types.ID, sec *session.Session) (*FormDefinition, error) {
	return LoadFormFunc(sec.Ctx(), id)
}

func LoadForm(ctx context.Context, id types.ID) (*FormDefinition, error) {
	form := FormDefinition{}
	if err := persistence.ActiveDataSourceManager.GormDB(ctx).Where(&FormDefinition{ID: id}).First(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func QueryForms(sec *session.Session) (*[]FormDefinition, error) {
	forms := []FormDefinition{}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Order("create_time ASC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return &forms, nil
}

// AttachWorkflow embeds the reduced config of an active and valid workflow into the form.
// The form keeps this snapshot until it is attached again, later edits of the workflow do not leak into it.
func AttachWorkflow(id types.ID, attaching *WorkflowAttaching, sec *session.Session) (*FormDefinition, error) {
	if !sec.Perms.HasManagePerm(authority.FormManage) {
		return nil, bizerror.ErrForbidden
	}

	var form FormDefinition
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&FormDefinition{ID: id}).First(&form).Error; err != nil {
			return err
		}
		wf, err := loadWorkflow(tx, attaching.WorkflowCode)
		if err != nil {
			return err
		}
		if !wf.IsActive {
			return &bizerror.ErrBadParam{Cause: errors.New("workflow " + wf.Code + " is not active")}
		}
		if result := Validate(wf.WorkflowDefinition); !result.Valid {
			return &ErrInvalidWorkflow{Result: result}
		}

		oldCode := form.WorkflowCode
		cfg := ConfigOf(wf.WorkflowDefinition)
		if err := tx.Model(&FormDefinition{}).Where(&FormDefinition{ID: id}).Updates(map[string]interface{}{
			"workflow_code": wf.Code, "workflow": &cfg,
		}).Error; err != nil {
			return err
		}
		form.WorkflowCode = wf.Code
		form.Workflow = &cfg

		ev, err = event.CreateEventFunc(event.SourceTypeForm, form.ID.String(), form.Name, event.EventCategoryRelationUpdated,
			nil, event.UpdatedRelations{{PropertyName: "workflow", PropertyDesc: "Workflow",
				TargetType: event.SourceTypeWorkflow, TargetTypeDesc: "Workflow",
				OldTargetId: oldCode, OldTargetDesc: oldCode, NewTargetId: wf.Code, NewTargetDesc: wf.Name}},
			&sec.Identity, time.Now().Round(time.Millisecond), tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return &form, nil
}

func DetachWorkflow(id types.ID, sec *session.Session) error {
	if !sec.Perms.HasManagePerm(authority.FormManage) {
		return bizerror.ErrForbidden
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err := db.Transaction(func(tx *gorm.DB) error {
		var form FormDefinition
		if err := tx.Where(&FormDefinition{ID: id}).First(&form).Error; err != nil {
			return err
		}
		if form.WorkflowCode == "" {
			return bizerror.ErrWorkflowNotAttached
		}
		if err := tx.Model(&FormDefinition{}).Where(&FormDefinition{ID: id}).Updates(map[string]interface{}{
			"workflow_code": "", "workflow": nil,
		}).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEventFunc(event.SourceTypeForm, form.ID.String(), form.Name, event.EventCategoryRelationUpdated,
			nil, event.UpdatedRelations{{PropertyName: "workflow", PropertyDesc: "Workflow",
				TargetType: event.SourceTypeWorkflow, TargetTypeDesc: "Workflow",
				OldTargetId: form.WorkflowCode, OldTargetDesc: form.WorkflowCode}},
			&sec.Identity, time.Now().Round(time.Millisecond), tx)
		return err
	})
	if err != nil {
		return err
	}

	event.InvokeHandlersFunc(ev)
	return nil
}
