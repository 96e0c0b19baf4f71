package flow

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"formflow/domain/notify"
	"formflow/domain/state"
	"time"
)

type Workflow struct {
	Code         string    `json:"code" gorm:"primary_key"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Description  string    `json:"description,omitempty"`
	InitialState string    `json:"initial_state"`
	IsActive     bool      `json:"is_active"`
	CreateTime   time.Time `json:"create_time"`
	UpdateTime   time.Time `json:"update_time"`
}

type WorkflowState struct {
	WorkflowCode string `gorm:"primary_key"`
	Code         string `gorm:"primary_key"`
	Seq          int
	Name         string
	Description  string
	Color        string
	Icon         string
	IsFinal      bool
}

type WorkflowTransition struct {
	WorkflowCode    string `gorm:"primary_key"`
	Seq             int    `gorm:"primary_key;auto_increment:false"`
	FromState       string
	ToState         string
	Action          string
	Label           string
	Permission      string
	RequiresComment bool
	Notifications   NotificationRules `sql:"type:TEXT"`
}

type NotificationRules []notify.NotificationRule

func (t NotificationRules) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *NotificationRules) Scan(v interface{}) error {
	return scanJSON(v, c)
}

func (c WorkflowConfig) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&c)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *WorkflowConfig) Scan(v interface{}) error {
	return scanJSON(v, c)
}

func scanJSON(v interface{}, target interface{}) error {
	if v == nil {
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), target)
}

func (f *FormDefinition) TableName() string {
	return "forms"
}

func workflowOf(detail *WorkflowDetail) *Workflow {
	return &Workflow{
		Code:         detail.Code,
		Name:         detail.Name,
		Version:      string(detail.Version),
		Description:  detail.Description,
		InitialState: detail.InitialState,
		IsActive:     detail.IsActive,
		CreateTime:   detail.CreateTime,
		UpdateTime:   detail.UpdateTime,
	}
}

func detailOf(w *Workflow, states []WorkflowState, transitions []WorkflowTransition) *WorkflowDetail {
	detail := &WorkflowDetail{
		WorkflowDefinition: WorkflowDefinition{
			Code:         w.Code,
			Name:         w.Name,
			Version:      Version(w.Version),
			Description:  w.Description,
			InitialState: w.InitialState,
			IsActive:     w.IsActive,
			StateMachine: state.StateMachine{States: []state.State{}, Transitions: []state.Transition{}},
		},
		CreateTime: w.CreateTime,
		UpdateTime: w.UpdateTime,
	}
	for _, s := range states {
		detail.States = append(detail.States, state.State{Code: s.Code, Name: s.Name, Description: s.Description,
			Color: s.Color, Icon: s.Icon, IsFinal: s.IsFinal})
	}
	for _, t := range transitions {
		detail.Transitions = append(detail.Transitions, state.Transition{From: t.FromState, To: t.ToState,
			Action: t.Action, Label: t.Label, Permission: t.Permission, RequiresComment: t.RequiresComment,
			Notifications: []notify.NotificationRule(t.Notifications)})
	}
	return detail
}
