package flow

import (
	"formflow/domain/notify"
	"formflow/domain/state"
)

// Patch derives a new definition from def. Patches never modify their input.
type Patch func(def WorkflowDefinition) WorkflowDefinition

// Edit applies patches in order to a copy of def and validates the outcome
func Edit(def WorkflowDefinition, patches ...Patch) (WorkflowDefinition, ValidationResult) {
	next := Clone(def)
	for _, p := range patches {
		next = p(next)
	}
	return next, Validate(next)
}

// Clone deep copies a definition, including notification rules
func Clone(def WorkflowDefinition) WorkflowDefinition {
	c := def
	if def.States != nil {
		c.States = append([]state.State{}, def.States...)
	}
	c.Transitions = cloneTransitions(def.Transitions)
	return c
}

func cloneTransitions(transitions []state.Transition) []state.Transition {
	if transitions == nil {
		return nil
	}
	result := make([]state.Transition, len(transitions))
	for i, t := range transitions {
		result[i] = cloneTransition(t)
	}
	return result
}

func cloneTransition(t state.Transition) state.Transition {
	if t.Notifications == nil {
		return t
	}
	rules := make([]notify.NotificationRule, len(t.Notifications))
	for i, r := range t.Notifications {
		rules[i] = r
		if r.Recipients != nil {
			rules[i].Recipients = append([]notify.RecipientSpec{}, r.Recipients...)
		}
		if r.Channels != nil {
			rules[i].Channels = append([]notify.Channel{}, r.Channels...)
		}
	}
	t.Notifications = rules
	return t
}

func SetInitialState(code string) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		def.InitialState = code
		return def
	}
}

func SetActive(active bool) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		def.IsActive = active
		return def
	}
}

// UpsertState replaces the state with the same code, or appends s
func UpsertState(s state.State) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		states := make([]state.State, 0, len(def.States)+1)
		replaced := false
		for _, existing := range def.States {
			if !replaced && existing.Code == s.Code {
				states = append(states, s)
				replaced = true
				continue
			}
			states = append(states, existing)
		}
		if !replaced {
			states = append(states, s)
		}
		def.States = states
		return def
	}
}

// RemoveState drops the state together with every transition touching it
func RemoveState(code string) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		states := make([]state.State, 0, len(def.States))
		for _, s := range def.States {
			if s.Code != code {
				states = append(states, s)
			}
		}
		transitions := make([]state.Transition, 0, len(def.Transitions))
		for _, t := range def.Transitions {
			if t.From != code && t.To != code {
				transitions = append(transitions, cloneTransition(t))
			}
		}
		def.States = states
		def.Transitions = transitions
		return def
	}
}

// RenameState changes a state code and every reference to it
func RenameState(from, to string) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		states := make([]state.State, len(def.States))
		for i, s := range def.States {
			if s.Code == from {
				s.Code = to
			}
			states[i] = s
		}
		transitions := cloneTransitions(def.Transitions)
		for i := range transitions {
			if transitions[i].From == from {
				transitions[i].From = to
			}
			if transitions[i].To == from {
				transitions[i].To = to
			}
		}
		if def.InitialState == from {
			def.InitialState = to
		}
		def.States = states
		def.Transitions = transitions
		return def
	}
}

func AddTransition(t state.Transition) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		transitions := cloneTransitions(def.Transitions)
		def.Transitions = append(transitions, cloneTransition(t))
		return def
	}
}

// ReplaceTransition is a no-op when index is out of range
func ReplaceTransition(index int, t state.Transition) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		if index < 0 || index >= len(def.Transitions) {
			return def
		}
		transitions := cloneTransitions(def.Transitions)
		transitions[index] = cloneTransition(t)
		def.Transitions = transitions
		return def
	}
}

// RemoveTransition is a no-op when index is out of range
func RemoveTransition(index int) Patch {
	return func(def WorkflowDefinition) WorkflowDefinition {
		if index < 0 || index >= len(def.Transitions) {
			return def
		}
		transitions := make([]state.Transition, 0, len(def.Transitions)-1)
		for i, t := range def.Transitions {
			if i != index {
				transitions = append(transitions, cloneTransition(t))
			}
		}
		def.Transitions = transitions
		return def
	}
}
