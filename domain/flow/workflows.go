package flow

import (
	"context"
	"errors"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/domain/state"
	"formflow/event"
	"formflow/persistence"
	"formflow/session"
	"strconv"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	QueryWorkflowsFunc           = QueryWorkflows
	DetailWorkflowFunc           = DetailWorkflow
	CreateWorkflowFunc           = CreateWorkflow
	UpdateWorkflowFunc           = UpdateWorkflow
	DeleteWorkflowFunc           = DeleteWorkflow
	QueryWorkflowTransitionsFunc = QueryWorkflowTransitions
	LoadWorkflowFunc             = LoadWorkflow
)

func CreateWorkflow(def *WorkflowDefinition, sec *session.Session) (*WorkflowDetail, error) {
	if !sec.Perms.HasManagePerm(authority.WorkflowManage) {
		return nil, bizerror.ErrForbidden
	}
	if result := Validate(*def); !result.Valid {
		return nil, &ErrInvalidWorkflow{Result: result}
	}

	now := time.Now().Round(time.Millisecond)
	detail := &WorkflowDetail{WorkflowDefinition: Clone(*def), CreateTime: now, UpdateTime: now}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&Workflow{}).Where("code = ?", detail.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrWorkflowExisted
		}
		if err := tx.Create(workflowOf(detail)).Error; err != nil {
			return err
		}
		if err := saveStateMachine(tx, detail.Code, detail.StateMachine); err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEventFunc(event.SourceTypeWorkflow, detail.Code, detail.Name, event.EventCategoryCreated,
			nil, nil, &sec.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return detail, nil
}

func DetailWorkflow(code string, sec *session.Session) (*WorkflowDetail, error) {
	return LoadWorkflowFunc(sec.Ctx(), code)
}

// LoadWorkflow reads a definition without permission checks, it is used by event handlers and the executor
func LoadWorkflow(ctx context.Context, code string) (*WorkflowDetail, error) {
	var detail *WorkflowDetail
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		detail, err = loadWorkflow(tx, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func loadWorkflow(tx *gorm.DB, code string) (*WorkflowDetail, error) {
	var w Workflow
	if err := tx.Where(&Workflow{Code: code}).First(&w).Error; err != nil {
		return nil, err
	}
	var stateRecords []WorkflowState
	if err := tx.Where(&WorkflowState{WorkflowCode: code}).Order("seq ASC").Find(&stateRecords).Error; err != nil {
		return nil, err
	}
	var transitionRecords []WorkflowTransition
	if err := tx.Where(&WorkflowTransition{WorkflowCode: code}).Order("seq ASC").Find(&transitionRecords).Error; err != nil {
		return nil, err
	}
	return detailOf(&w, stateRecords, transitionRecords), nil
}

func QueryWorkflows(query *WorkflowQuery, sec *session.Session) (*[]Workflow, error) {
	workflows := []Workflow{}
	q := persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Model(&Workflow{})
	if query.Name != "" {
		q = q.Where("name like ?", "%"+query.Name+"%")
	}
	if query.IsActive != nil {
		q = q.Where("is_active = ?", *query.IsActive)
	}
	if err := q.Order("code ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return &workflows, nil
}

// UpdateWorkflow replaces a definition as a whole, the code can not be changed
func UpdateWorkflow(code string, def *WorkflowDefinition, sec *session.Session) (*WorkflowDetail, error) {
	if !sec.Perms.HasManagePerm(authority.WorkflowManage) {
		return nil, bizerror.ErrForbidden
	}
	next := Clone(*def)
	if next.Code == "" {
		next.Code = code
	}
	if next.Code != code {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("workflow code can not be changed")}
	}
	if result := Validate(next); !result.Valid {
		return nil, &ErrInvalidWorkflow{Result: result}
	}

	now := time.Now().Round(time.Millisecond)
	var detail *WorkflowDetail
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err := db.Transaction(func(tx *gorm.DB) error {
		old, err := loadWorkflow(tx, code)
		if err != nil {
			return err
		}
		detail = &WorkflowDetail{WorkflowDefinition: next, CreateTime: old.CreateTime, UpdateTime: now}

		if err := tx.Model(&Workflow{}).Where(&Workflow{Code: code}).Updates(map[string]interface{}{
			"name": next.Name, "version": string(next.Version), "description": next.Description,
			"initial_state": next.InitialState, "is_active": next.IsActive, "update_time": now,
		}).Error; err != nil {
			return err
		}
		if err := tx.Where(&WorkflowState{WorkflowCode: code}).Delete(&WorkflowState{}).Error; err != nil {
			return err
		}
		if err := tx.Where(&WorkflowTransition{WorkflowCode: code}).Delete(&WorkflowTransition{}).Error; err != nil {
			return err
		}
		if err := saveStateMachine(tx, code, next.StateMachine); err != nil {
			return err
		}

		ev, err = event.CreateEventFunc(event.SourceTypeWorkflow, code, next.Name, event.EventCategoryPropertyUpdated,
			diffWorkflow(&old.WorkflowDefinition, &next), nil, &sec.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return detail, nil
}

func DeleteWorkflow(code string, sec *session.Session) error {
	if !sec.Perms.HasManagePerm(authority.WorkflowManage) {
		return bizerror.ErrForbidden
	}
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err := db.Transaction(func(tx *gorm.DB) error {
		var wf Workflow
		if err := tx.Where(&Workflow{Code: code}).First(&wf).Error; err != nil {
			return err
		}
		if err := isWorkflowReferenced(tx, code); err != nil {
			return err
		}
		if err := tx.Where(&Workflow{Code: code}).Delete(&Workflow{}).Error; err != nil {
			return err
		}
		if err := tx.Where(&WorkflowState{WorkflowCode: code}).Delete(&WorkflowState{}).Error; err != nil {
			return err
		}
		if err := tx.Where(&WorkflowTransition{WorkflowCode: code}).Delete(&WorkflowTransition{}).Error; err != nil {
			return err
		}

		var err error
		ev, err = event.CreateEventFunc(event.SourceTypeWorkflow, code, wf.Name, event.EventCategoryDeleted,
			nil, nil, &sec.Identity, time.Now().Round(time.Millisecond), tx)
		return err
	})
	if err != nil {
		return err
	}

	event.InvokeHandlersFunc(ev)
	return nil
}

// QueryWorkflowTransitions filters the transitions of a workflow by source and target state, empty means any
func QueryWorkflowTransitions(code string, fromState, toState string, sec *session.Session) ([]state.Transition, error) {
	detail, err := LoadWorkflowFunc(sec.Ctx(), code)
	if err != nil {
		return nil, err
	}
	if fromState != "" {
		if _, found := detail.FindState(fromState); !found {
			return nil, bizerror.ErrUnknownState
		}
	}
	if toState != "" {
		if _, found := detail.FindState(toState); !found {
			return nil, bizerror.ErrUnknownState
		}
	}
	return detail.AvailableTransitions(fromState, toState), nil
}

func saveStateMachine(tx *gorm.DB, code string, sm state.StateMachine) error {
	for idx, s := range sm.States {
		record := &WorkflowState{WorkflowCode: code, Code: s.Code, Seq: idx + 1, Name: s.Name,
			Description: s.Description, Color: s.Color, Icon: s.Icon, IsFinal: s.IsFinal}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
	}
	for idx, t := range sm.Transitions {
		record := &WorkflowTransition{WorkflowCode: code, Seq: idx + 1, FromState: t.From, ToState: t.To,
			Action: t.Action, Label: t.Label, Permission: t.Permission, RequiresComment: t.RequiresComment,
			Notifications: NotificationRules(t.Notifications)}
		if err := tx.Create(record).Error; err != nil {
			return err
		}
	}
	return nil
}

func isWorkflowReferenced(db *gorm.DB, code string) error {
	var count int
	if err := db.Model(&FormDefinition{}).Where("workflow_code = ?", code).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return bizerror.ErrWorkflowIsReferenced
	}
	return nil
}

func diffWorkflow(old, next *WorkflowDefinition) event.UpdatedProperties {
	props := event.UpdatedProperties{}
	add := func(name, oldValue, newValue string) {
		if oldValue != newValue {
			props = append(props, event.UpdatedProperty{PropertyName: name, PropertyDesc: name,
				OldValue: oldValue, OldValueDesc: oldValue, NewValue: newValue, NewValueDesc: newValue})
		}
	}
	add("name", old.Name, next.Name)
	add("version", string(old.Version), string(next.Version))
	add("description", old.Description, next.Description)
	add("initial_state", old.InitialState, next.InitialState)
	add("is_active", strconv.FormatBool(old.IsActive), strconv.FormatBool(next.IsActive))
	add("states", strconv.Itoa(len(old.States)), strconv.Itoa(len(next.States)))
	add("transitions", strconv.Itoa(len(old.Transitions)), strconv.Itoa(len(next.Transitions)))
	return props
}
