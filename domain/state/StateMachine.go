package state

import (
	"formflow/domain/notify"
)

type StateMachineTraits interface {
	AvailableTransitions(fromState string, toState string) []Transition
	EligibleTransitions(current string) []Transition
}

// stateless object, just used for state computing
type StateMachine struct {
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
}

type State struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IsFinal     bool   `json:"is_final"`
}

type Transition struct {
	From            string                    `json:"from"`
	To              string                    `json:"to"`
	Action          string                    `json:"action"`
	Label           string                    `json:"label,omitempty"`
	Permission      string                    `json:"permission,omitempty"`
	RequiresComment bool                      `json:"requires_comment"`
	Notifications   []notify.NotificationRule `json:"notifications,omitempty"`
}

// DisplayLabel is the label shown to users, the action when no label is set
func (t Transition) DisplayLabel() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Action
}

func NewStateMachine(states []State, transitions []Transition) *StateMachine {
	return &StateMachine{States: states, Transitions: transitions}
}

func (sm *StateMachine) FindState(code string) (State, bool) {
	for _, s := range sm.States {
		if s.Code == code {
			return s, true
		}
	}
	return State{}, false
}

// AvailableTransitions filters transitions by source and target state, empty means any
func (sm *StateMachine) AvailableTransitions(fromState string, toState string) []Transition {
	r := []Transition{}
	for _, transition := range sm.Transitions {
		if (fromState == "" || fromState == transition.From) && (toState == "" || toState == transition.To) {
			r = append(r, transition)
		}
	}
	return r
}

// EligibleTransitions lists transitions leaving current in declaration order
func (sm *StateMachine) EligibleTransitions(current string) []Transition {
	if current == "" {
		return []Transition{}
	}
	return sm.AvailableTransitions(current, "")
}
