package submission

import (
	"errors"
	"fmt"
	"formflow/bizerror"
	"net/http"
)

type ErrorKind string

const (
	KindUnauthorizedTransition ErrorKind = "UnauthorizedTransition"
	KindCommentRequired        ErrorKind = "CommentRequired"
	KindInvalidTransition      ErrorKind = "InvalidTransition"
)

var (
	ErrUnauthorizedTransition = errors.New("unauthorized transition")
	ErrCommentRequired        = errors.New("comment required")
	ErrInvalidTransition      = errors.New("invalid transition")
)

// ExecutionError is the typed failure of Apply, errors.Is matches it against the sentinel of its kind
type ExecutionError struct {
	Kind   ErrorKind
	Action string
	From   string
	To     string
	Reason string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s: %s (%s -> %s)", e.sentinel().Error(), e.Action, e.From, e.To)
	if e.Reason != "" {
		msg += ", " + e.Reason
	}
	return msg
}

func (e *ExecutionError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *ExecutionError) sentinel() error {
	switch e.Kind {
	case KindUnauthorizedTransition:
		return ErrUnauthorizedTransition
	case KindCommentRequired:
		return ErrCommentRequired
	default:
		return ErrInvalidTransition
	}
}

func (e *ExecutionError) Respond() *bizerror.BizErrorDetail {
	switch e.Kind {
	case KindUnauthorizedTransition:
		return &bizerror.BizErrorDetail{Status: http.StatusForbidden, Code: "transition.unauthorized", Message: e.Error(), Cause: e}
	case KindCommentRequired:
		return &bizerror.BizErrorDetail{Status: http.StatusUnprocessableEntity, Code: "transition.comment_required", Message: e.Error(), Cause: e}
	default:
		return &bizerror.BizErrorDetail{Status: http.StatusConflict, Code: "transition.invalid", Message: e.Error(), Cause: e}
	}
}
