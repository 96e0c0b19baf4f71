package flow

import (
	"fmt"
	"formflow/domain/notify"
	"formflow/domain/state"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

type validation struct {
	errors   []Issue
	warnings []Issue
}

func (v *validation) error(field, format string, args ...interface{}) {
	v.errors = append(v.errors, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validation) warn(field, format string, args ...interface{}) {
	v.warnings = append(v.warnings, Issue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the structural soundness of a definition and reports every problem found.
// Errors make the definition invalid, warnings are advisory. def is never modified.
func Validate(def WorkflowDefinition) ValidationResult {
	v := &validation{errors: []Issue{}, warnings: []Issue{}}

	if def.Code == "" {
		v.error("code", "workflow code is required")
	} else if !IsIdentifier(def.Code) {
		v.error("code", "workflow code must contain only lowercase letters, digits and underscores")
	}
	if def.Name == "" {
		v.error("name", "workflow name is required")
	}
	if def.Version == "" {
		v.error("version", "workflow version is required")
	}

	// first occurrence index of every declared state code
	declared := map[string]int{}
	finals := map[string]bool{}
	if len(def.States) == 0 {
		v.error("states", "at least one state required")
	}
	for i, s := range def.States {
		field := fmt.Sprintf("states[%d]", i)
		switch {
		case s.Code == "":
			v.error(field+".code", "state code is required")
		case !IsIdentifier(s.Code):
			v.error(field+".code", "state code %q must contain only lowercase letters, digits and underscores", s.Code)
		}
		if s.Code != "" {
			if _, dup := declared[s.Code]; dup {
				v.error(field+".code", "duplicate state code %q", s.Code)
			} else {
				declared[s.Code] = i
				finals[s.Code] = s.IsFinal
			}
		}
		if s.Name == "" {
			v.error(field+".name", "state name is required")
		}
	}

	if len(def.States) > 0 {
		if def.InitialState == "" {
			v.error("initial_state", "initial state is required")
		} else if _, ok := declared[def.InitialState]; !ok {
			v.error("initial_state", "initial state %q is not a declared state", def.InitialState)
		}

		if def.InitialState != "" {
			reachable := reachableStates(def.InitialState, def.Transitions)
			for i, s := range def.States {
				if s.Code == "" || declared[s.Code] != i || s.Code == def.InitialState {
					continue
				}
				if !reachable[s.Code] {
					v.warn(fmt.Sprintf("states[%d]", i), "state %q is unreachable from initial state", s.Code)
				}
			}
		}

		outgoing := map[string]bool{}
		for _, t := range def.Transitions {
			outgoing[t.From] = true
		}
		for i, s := range def.States {
			if s.Code == "" || declared[s.Code] != i || s.IsFinal {
				continue
			}
			if !outgoing[s.Code] {
				v.warn(fmt.Sprintf("states[%d]", i), "non-final state %q has no outgoing transitions", s.Code)
			}
		}
	}

	triples := map[[3]string]int{}
	for _, t := range def.Transitions {
		if t.From != "" && t.To != "" && t.Action != "" {
			triples[[3]string{t.From, t.To, t.Action}]++
		}
	}
	for i, t := range def.Transitions {
		field := fmt.Sprintf("transitions[%d]", i)
		validateTransitionEnd(v, field+".from", "source", t.From, declared)
		validateTransitionEnd(v, field+".to", "target", t.To, declared)
		switch {
		case t.Action == "":
			v.error(field+".action", "action is required")
		case !IsIdentifier(t.Action):
			v.error(field+".action", "action %q must contain only lowercase letters, digits and underscores", t.Action)
		}
		if triples[[3]string{t.From, t.To, t.Action}] > 1 {
			v.error(field, "duplicate transition %s -> %s (%s)", t.From, t.To, t.Action)
		}
		if finals[t.From] {
			v.warn(field+".from", "transition leaves final state %q", t.From)
		}
		validateNotifications(v, field, t)
	}

	hasFinal := false
	for _, s := range def.States {
		if s.IsFinal {
			hasFinal = true
			break
		}
	}
	if !hasFinal {
		v.warn("states", "no final states — unclear completion criteria")
	}

	return ValidationResult{Valid: len(v.errors) == 0, Errors: v.errors, Warnings: v.warnings}
}

func validateTransitionEnd(v *validation, field, end, code string, declared map[string]int) {
	if code == "" {
		v.error(field, "%s state is required", end)
		return
	}
	if _, ok := declared[code]; !ok {
		v.error(field, "%s state %q is not a declared state", end, code)
	}
}

func validateNotifications(v *validation, field string, t state.Transition) {
	for j, rule := range t.Notifications {
		ruleField := fmt.Sprintf("%s.notifications[%d]", field, j)
		if len(rule.Recipients) == 0 {
			v.warn(ruleField+".recipients", "notification rule has no recipients")
		}
		for k, r := range rule.Recipients {
			recipientField := fmt.Sprintf("%s.recipients[%d]", ruleField, k)
			switch recipient := r.Recipient.(type) {
			case nil:
				v.warn(recipientField, "recipient is empty")
			case notify.UnknownRecipient:
				v.warn(recipientField+".type", "unknown recipient type %q", recipient.RawType)
			case notify.UserRecipient:
				if recipient.UserID == "" {
					v.warn(recipientField+".value", "user recipient requires a user id")
				}
			case notify.RoleRecipient:
				if recipient.RoleID == "" {
					v.warn(recipientField+".role_id", "role recipient requires a role id")
				}
			case notify.BusinessRoleRecipient:
				if recipient.BusinessRoleID == "" {
					v.warn(recipientField+".business_role_id", "business role recipient requires a business role id")
				}
			case notify.PermissionRecipient:
				if recipient.PermissionCode == "" {
					v.warn(recipientField+".permission_code", "permission recipient requires a permission code")
				}
			case notify.FieldValueRecipient:
				if recipient.Field == "" {
					v.warn(recipientField+".value", "field value recipient requires a field name")
				}
			}
		}
		if rule.Priority != "" && !rule.Priority.IsValid() {
			v.warn(ruleField+".priority", "unknown priority %q", rule.Priority)
		}
		for k, c := range rule.Channels {
			if !c.IsValid() {
				v.warn(fmt.Sprintf("%s.channels[%d]", ruleField, k), "unknown channel %q", c)
			}
		}
	}
}

// reachableStates is the fixed-point closure of states reachable from initial
func reachableStates(initial string, transitions []state.Transition) map[string]bool {
	reachable := map[string]bool{initial: true}
	for changed := true; changed; {
		changed = false
		for _, t := range transitions {
			if reachable[t.From] && t.To != "" && !reachable[t.To] {
				reachable[t.To] = true
				changed = true
			}
		}
	}
	return reachable
}
