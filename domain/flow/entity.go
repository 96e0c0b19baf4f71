package flow

import (
	"bytes"
	"encoding/json"
	"formflow/domain/state"
	"time"

	"github.com/fundwit/go-commons/types"
)

// WorkflowDefinition is the authored state machine, states and transitions are flattened into it on the wire
type WorkflowDefinition struct {
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Version      Version `json:"version"`
	Description  string  `json:"description,omitempty"`
	InitialState string  `json:"initial_state"`

	state.StateMachine

	IsActive bool `json:"is_active"`
}

// WorkflowDetail is a persisted definition
type WorkflowDetail struct {
	WorkflowDefinition

	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
}

// WorkflowConfig is the reduced form of a definition which is embedded in forms
type WorkflowConfig struct {
	InitialState string             `json:"initial_state"`
	States       []string           `json:"states"`
	Transitions  []state.Transition `json:"transitions"`
}

func ConfigOf(def WorkflowDefinition) WorkflowConfig {
	c := Clone(def)
	cfg := WorkflowConfig{InitialState: c.InitialState, States: []string{}, Transitions: c.Transitions}
	for _, s := range c.States {
		cfg.States = append(cfg.States, s.Code)
	}
	if cfg.Transitions == nil {
		cfg.Transitions = []state.Transition{}
	}
	return cfg
}

func (c WorkflowConfig) HasState(code string) bool {
	for _, s := range c.States {
		if s == code {
			return true
		}
	}
	return false
}

type FormDefinition struct {
	ID           types.ID        `json:"id" gorm:"primary_key;auto_increment:false"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	WorkflowCode string          `json:"workflow_code,omitempty"`
	Workflow     *WorkflowConfig `json:"workflow,omitempty" sql:"type:TEXT"`
	CreateTime   time.Time       `json:"create_time"`
}

type FormCreation struct {
	Code        string `json:"code"        binding:"required,identifier"`
	Name        string `json:"name"        binding:"required"`
	Description string `json:"description"`
}

type WorkflowQuery struct {
	Name     string `form:"name"`
	IsActive *bool  `form:"active"`
}

// Version accepts both "1.0" and 1 on the wire and is always written as a string
type Version string

func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = Version(n.String())
	return nil
}
