package submission

import (
	"formflow/bizerror"
	"formflow/common"
	"formflow/domain/flow"
	"formflow/domain/notify"
	"formflow/domain/state"
	"formflow/event"
	"formflow/persistence"
	"formflow/session"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	// ActiveExecutor applies transitions for the submission service, it is assembled at startup
	ActiveExecutor *Executor

	CreateSubmissionFunc              = CreateSubmission
	DetailSubmissionFunc              = DetailSubmission
	QuerySubmissionsFunc              = QuerySubmissions
	QuerySubmissionStepsFunc          = QuerySubmissionSteps
	EligibleSubmissionTransitionsFunc = EligibleSubmissionTransitions
	TransitSubmissionFunc             = TransitSubmission
)

func ActorOf(sec *session.Session) Actor {
	return Actor{
		ID:           notify.UserID(sec.Identity.ID.String()),
		Name:         sec.Identity.DisplayName(),
		Capabilities: sec.Perms,
	}
}

// CreateSubmission starts a submission in the initial state of the workflow attached to the form
func CreateSubmission(c *SubmissionCreation, sec *session.Session) (*Submission, error) {
	form, err := flow.LoadFormFunc(sec.Ctx(), c.FormID)
	if err != nil {
		return nil, err
	}
	if form.Workflow == nil {
		return nil, bizerror.ErrWorkflowNotAttached
	}

	now := time.Now().Round(time.Millisecond)
	s := &Submission{
		ID:               common.NextId(idWorker),
		FormID:           form.ID,
		FormTitle:        form.Name,
		WorkflowCode:     form.WorkflowCode,
		CurrentStateCode: form.Workflow.InitialState,
		FormData:         FormData(c.FormData),
		SubmitterID:      sec.Identity.ID,
		SubmitterName:    sec.Identity.DisplayName(),
		ApproverID:       c.ApproverID,
		CreateTime:       now,
		UpdateTime:       now,
	}
	if s.FormData == nil {
		s.FormData = FormData{}
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		step := &TransitionStep{ID: common.NextId(idWorker), SubmissionID: s.ID, ToState: s.CurrentStateCode,
			Action: "create", CreatorID: sec.Identity.ID, CreatorName: s.SubmitterName, CreateTime: now}
		if err := tx.Create(step).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEventFunc(event.SourceTypeSubmission, s.ID.String(), s.FormTitle, event.EventCategoryCreated,
			nil, nil, &sec.Identity, now, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	event.InvokeHandlersFunc(ev)
	return s, nil
}

func DetailSubmission(id types.ID, sec *session.Session) (*Submission, error) {
	s := Submission{}
	if err := persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Where(&Submission{ID: id}).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func QuerySubmissions(query *SubmissionQuery, sec *session.Session) (*[]Submission, error) {
	submissions := []Submission{}
	q := persistence.ActiveDataSourceManager.GormDB(sec.Ctx()).Model(&Submission{})
	if query.FormID != 0 {
		q = q.Where("form_id = ?", query.FormID)
	}
	if query.State != "" {
		q = q.Where("current_state = ?", query.State)
	}
	if err := q.Order("create_time ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}
	return &submissions, nil
}

func QuerySubmissionSteps(id types.ID, sec *session.Session) (*[]TransitionStep, error) {
	steps := []TransitionStep{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Ctx())
	if err := db.Where(&TransitionStep{SubmissionID: id}).Order("create_time ASC, id ASC").Find(&steps).Error; err != nil {
		return nil, err
	}
	return &steps, nil
}

// EligibleSubmissionTransitions lists the transitions leaving the current state of the submission
func EligibleSubmissionTransitions(id types.ID, sec *session.Session) ([]EligibleTransition, error) {
	s, cfg, err := loadSubmissionWithConfig(id, sec)
	if err != nil {
		return nil, err
	}
	result := []EligibleTransition{}
	for _, t := range ListEligibleTransitions(*cfg, s.CurrentStateCode) {
		result = append(result, EligibleTransition{Transition: t, DisplayLabel: t.DisplayLabel(), Authorized: Authorize(t, sec.Perms)})
	}
	return result, nil
}

// TransitSubmission applies the transition selected by action, and by target state when the action is ambiguous
func TransitSubmission(id types.ID, c *SubmissionTransiting, sec *session.Session) (*Submission, error) {
	s, cfg, err := loadSubmissionWithConfig(id, sec)
	if err != nil {
		return nil, err
	}
	if c.ToState != "" && !cfg.HasState(c.ToState) {
		return nil, bizerror.ErrUnknownState
	}

	var candidates []state.Transition
	for _, t := range ListEligibleTransitions(*cfg, s.CurrentStateCode) {
		if t.Action == c.Action && (c.ToState == "" || t.To == c.ToState) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, &ExecutionError{Kind: KindInvalidTransition, Action: c.Action, From: s.CurrentStateCode, To: c.ToState,
			Reason: "no such transition from current state"}
	}
	if len(candidates) > 1 {
		return nil, bizerror.ErrAmbiguousTransition
	}

	if _, err := ActiveExecutor.Apply(sec.Ctx(), candidates[0], s.Entity(), ActorOf(sec), c.Comment); err != nil {
		return nil, err
	}
	return DetailSubmission(id, sec)
}

func loadSubmissionWithConfig(id types.ID, sec *session.Session) (*Submission, *flow.WorkflowConfig, error) {
	s, err := DetailSubmission(id, sec)
	if err != nil {
		return nil, nil, err
	}
	form, err := flow.LoadFormFunc(sec.Ctx(), s.FormID)
	if err != nil {
		return nil, nil, err
	}
	if form.Workflow == nil {
		return nil, nil, bizerror.ErrWorkflowNotAttached
	}
	return s, form.Workflow, nil
}
