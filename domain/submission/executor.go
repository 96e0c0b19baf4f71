package submission

import (
	"context"
	"formflow/authority"
	"formflow/domain/flow"
	"formflow/domain/notify"
	"formflow/domain/state"
	"formflow/event"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

const defaultMaxSwapAttempts = 3

// Entity is the runtime view of a submission which transitions are applied to
type Entity struct {
	ID               string
	Desc             string
	WorkflowCode     string
	CurrentStateCode string
	SubmitterID      notify.UserID
	ApproverID       notify.UserID
	FormData         map[string]interface{}
}

// Notifier accepts dispatch requests, delivery happens outside of Apply
type Notifier interface {
	Emit(ctx context.Context, request *event.DispatchRequest) error
}

type Executor struct {
	store           StateStore
	resolver        *notify.Resolver
	notifier        Notifier
	locks           *keyedMutex
	maxSwapAttempts int
}

func NewExecutor(store StateStore, resolver *notify.Resolver, notifier Notifier) *Executor {
	return &Executor{
		store:           store,
		resolver:        resolver,
		notifier:        notifier,
		locks:           newKeyedMutex(),
		maxSwapAttempts: defaultMaxSwapAttempts,
	}
}

// ListEligibleTransitions returns the transitions leaving current, in declaration order
func ListEligibleTransitions(cfg flow.WorkflowConfig, current string) []state.Transition {
	sm := state.StateMachine{Transitions: cfg.Transitions}
	return sm.EligibleTransitions(current)
}

// Authorize is true when the transition is unrestricted or its permission is held exactly
func Authorize(t state.Transition, capabilities authority.Permissions) bool {
	return t.Permission == "" || capabilities.Has(t.Permission)
}

// Apply moves entity along t and returns the new state code.
// Checks run in order: authorization, comment, source state. On failure entity is left untouched.
// Calls for the same entity are serialized from the source state check to the state update,
// the store swap decides between racing processes. Notifications are emitted after the entity is released.
func (e *Executor) Apply(ctx context.Context, t state.Transition, entity *Entity, actor Actor, comment string) (string, error) {
	if !Authorize(t, actor.Capabilities) {
		return "", executionError(KindUnauthorizedTransition, t, "")
	}
	if t.RequiresComment && strings.TrimSpace(comment) == "" {
		return "", executionError(KindCommentRequired, t, "")
	}

	applied, err := e.swap(ctx, t, entity, actor, comment)
	if err != nil {
		return "", err
	}
	e.emitNotifications(ctx, t, applied, actor, t.From, comment)
	return t.To, nil
}

// swap holds the entity lock, it returns a copy of the entity taken right after the state update
func (e *Executor) swap(ctx context.Context, t state.Transition, entity *Entity, actor Actor, comment string) (Entity, error) {
	unlock := e.locks.Lock(entity.ID)
	defer unlock()

	if t.From != entity.CurrentStateCode {
		return Entity{}, executionError(KindInvalidTransition, t, "current state is "+entity.CurrentStateCode)
	}

	change := StateChange{
		EntityID:   entity.ID,
		EntityDesc: entity.Desc,
		From:       t.From,
		To:         t.To,
		Action:     t.Action,
		Comment:    comment,
		Actor:      actor,
		Time:       time.Now().Round(time.Millisecond),
	}
	for attempt := 1; ; attempt++ {
		swapped, err := e.store.CompareAndSwapState(ctx, change)
		if err != nil {
			return Entity{}, err
		}
		if swapped {
			break
		}
		current, err := e.store.CurrentState(ctx, entity.ID)
		if err != nil {
			return Entity{}, err
		}
		if current != t.From {
			return Entity{}, executionError(KindInvalidTransition, t, "current state is "+current)
		}
		if attempt >= e.maxSwapAttempts {
			return Entity{}, executionError(KindInvalidTransition, t, "concurrent modification")
		}
	}

	entity.CurrentStateCode = t.To
	return *entity, nil
}

// emitNotifications sends one dispatch request per rule, failures are logged and never undo the state change
func (e *Executor) emitNotifications(ctx context.Context, t state.Transition, entity Entity, actor Actor, previous, comment string) {
	if len(t.Notifications) == 0 || e.notifier == nil || e.resolver == nil {
		return
	}

	approverID := entity.ApproverID
	if approverID == "" {
		approverID = actor.ID
	}
	rc := notify.ResolveContext{SubmitterID: entity.SubmitterID, ApproverID: approverID, FormData: entity.FormData}
	formData := entity.FormData
	if formData == nil {
		formData = map[string]interface{}{}
	}
	vars := notify.Variables{
		"submitter":      e.resolver.DisplayName(ctx, entity.SubmitterID),
		"submitter_id":   string(entity.SubmitterID),
		"approver":       e.resolver.DisplayName(ctx, approverID),
		"approver_id":    string(approverID),
		"actor":          actor.Name,
		"form_title":     entity.Desc,
		"workflow":       entity.WorkflowCode,
		"previous_state": previous,
		"current_state":  t.To,
		"action":         t.Action,
		"action_label":   t.DisplayLabel(),
		"comment":        comment,
		"form_data":      formData,
	}

	submissionID, _ := types.ParseID(entity.ID)
	for _, rule := range t.Notifications {
		normalized := rule.Normalized()
		request := &event.DispatchRequest{
			SubmissionID: submissionID,
			Action:       t.Action,
			FromState:    t.From,
			ToState:      t.To,
			Priority:     normalized.Priority,
			Channels:     normalized.Channels,
			Deliveries:   e.resolver.Compose(ctx, normalized, rc, vars),
			CreateTime:   time.Now(),
		}
		if err := e.notifier.Emit(ctx, request); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"entityId": entity.ID, "action": t.Action}).
				Error("failed to emit notification dispatch request")
		}
	}
}

func executionError(kind ErrorKind, t state.Transition, reason string) *ExecutionError {
	return &ExecutionError{Kind: kind, Action: t.Action, From: t.From, To: t.To, Reason: reason}
}
