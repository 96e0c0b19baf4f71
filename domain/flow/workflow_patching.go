package flow

import (
	"fmt"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/domain/state"
	"formflow/session"
)

var PatchWorkflowFunc = PatchWorkflow

const (
	OpSetInitialState   = "set_initial_state"
	OpSetActive         = "set_active"
	OpUpsertState       = "upsert_state"
	OpRemoveState       = "remove_state"
	OpRenameState       = "rename_state"
	OpAddTransition     = "add_transition"
	OpReplaceTransition = "replace_transition"
	OpRemoveTransition  = "remove_transition"
)

// PatchOperation is the wire form of a Patch, only the fields its op needs are read
type PatchOperation struct {
	Op         string            `json:"op"                   binding:"required"`
	Code       string            `json:"code,omitempty"`
	NewCode    string            `json:"new_code,omitempty"`
	Active     *bool             `json:"active,omitempty"`
	State      *state.State      `json:"state,omitempty"`
	Transition *state.Transition `json:"transition,omitempty"`
	Index      *int              `json:"index,omitempty"`
}

type WorkflowPatching struct {
	Operations []PatchOperation `json:"operations" binding:"required,min=1,dive"`
}

func (o PatchOperation) Patch() (Patch, error) {
	switch o.Op {
	case OpSetInitialState:
		return SetInitialState(o.Code), nil
	case OpSetActive:
		if o.Active == nil {
			return nil, fmt.Errorf("%s: active is required", o.Op)
		}
		return SetActive(*o.Active), nil
	case OpUpsertState:
		if o.State == nil {
			return nil, fmt.Errorf("%s: state is required", o.Op)
		}
		return UpsertState(*o.State), nil
	case OpRemoveState:
		if o.Code == "" {
			return nil, fmt.Errorf("%s: code is required", o.Op)
		}
		return RemoveState(o.Code), nil
	case OpRenameState:
		if o.Code == "" || o.NewCode == "" {
			return nil, fmt.Errorf("%s: code and new_code are required", o.Op)
		}
		return RenameState(o.Code, o.NewCode), nil
	case OpAddTransition:
		if o.Transition == nil {
			return nil, fmt.Errorf("%s: transition is required", o.Op)
		}
		return AddTransition(*o.Transition), nil
	case OpReplaceTransition:
		if o.Index == nil || o.Transition == nil {
			return nil, fmt.Errorf("%s: index and transition are required", o.Op)
		}
		return ReplaceTransition(*o.Index, *o.Transition), nil
	case OpRemoveTransition:
		if o.Index == nil {
			return nil, fmt.Errorf("%s: index is required", o.Op)
		}
		return RemoveTransition(*o.Index), nil
	default:
		return nil, fmt.Errorf("unknown patch operation %q", o.Op)
	}
}

// PatchWorkflow applies operations in order to the stored definition and saves the outcome when it is still valid
func PatchWorkflow(code string, patching *WorkflowPatching, sec *session.Session) (*WorkflowDetail, error) {
	if !sec.Perms.HasManagePerm(authority.WorkflowManage) {
		return nil, bizerror.ErrForbidden
	}
	patches := make([]Patch, 0, len(patching.Operations))
	for i, o := range patching.Operations {
		p, err := o.Patch()
		if err != nil {
			return nil, &bizerror.ErrBadParam{Cause: fmt.Errorf("operations[%d]: %w", i, err)}
		}
		patches = append(patches, p)
	}

	current, err := LoadWorkflowFunc(sec.Ctx(), code)
	if err != nil {
		return nil, err
	}
	next, result := Edit(current.WorkflowDefinition, patches...)
	if !result.Valid {
		return nil, &ErrInvalidWorkflow{Result: result}
	}
	return UpdateWorkflowFunc(code, &next, sec)
}
