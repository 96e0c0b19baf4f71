package submission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"formflow/domain/notify"
	"formflow/domain/state"
	"time"

	"github.com/fundwit/go-commons/types"
)

type Submission struct {
	ID               types.ID  `json:"id" gorm:"primary_key;auto_increment:false"`
	FormID           types.ID  `json:"form_id"`
	FormTitle        string    `json:"form_title"`
	WorkflowCode     string    `json:"workflow_code"`
	CurrentStateCode string    `json:"current_state" gorm:"column:current_state"`
	FormData         FormData  `json:"form_data" sql:"type:TEXT"`
	SubmitterID      types.ID  `json:"submitter_id"`
	SubmitterName    string    `json:"submitter_name"`
	ApproverID       types.ID  `json:"approver_id,omitempty"`
	CreateTime       time.Time `json:"create_time"`
	UpdateTime       time.Time `json:"update_time"`
}

func (s *Submission) TableName() string {
	return "submissions"
}

// Entity is the executor view of the submission
func (s *Submission) Entity() *Entity {
	e := &Entity{
		ID:               s.ID.String(),
		Desc:             s.FormTitle,
		WorkflowCode:     s.WorkflowCode,
		CurrentStateCode: s.CurrentStateCode,
		SubmitterID:      notify.UserID(s.SubmitterID.String()),
		FormData:         s.FormData,
	}
	if s.ApproverID != 0 {
		e.ApproverID = notify.UserID(s.ApproverID.String())
	}
	return e
}

// TransitionStep records one state change of a submission, the creation step has an empty from state
type TransitionStep struct {
	ID           types.ID  `json:"id" gorm:"primary_key;auto_increment:false"`
	SubmissionID types.ID  `json:"submission_id"`
	FromState    string    `json:"from_state"`
	ToState      string    `json:"to_state"`
	Action       string    `json:"action"`
	Comment      string    `json:"comment,omitempty"`
	CreatorID    types.ID  `json:"creator_id"`
	CreatorName  string    `json:"creator_name"`
	CreateTime   time.Time `json:"create_time"`
}

func (s *TransitionStep) TableName() string {
	return "transition_steps"
}

type SubmissionCreation struct {
	FormID     types.ID               `json:"form_id"  binding:"required"`
	FormData   map[string]interface{} `json:"form_data"`
	ApproverID types.ID               `json:"approver_id"`
}

type SubmissionTransiting struct {
	Action  string `json:"action"   binding:"required"`
	ToState string `json:"to_state"`
	Comment string `json:"comment"`
}

type SubmissionQuery struct {
	FormID types.ID `form:"formId"`
	State  string   `form:"state"`
}

// EligibleTransition is a transition leaving the current state, authorized tells whether the caller may apply it
type EligibleTransition struct {
	state.Transition
	DisplayLabel string `json:"display_label"`
	Authorized   bool   `json:"authorized"`
}

type FormData map[string]interface{}

func (d FormData) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(map[string]interface{}(d))
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (d *FormData) Scan(v interface{}) error {
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
	return json.Unmarshal([]byte(jsonString), d)
}
