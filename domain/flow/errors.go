package flow

import (
	"fmt"
	"formflow/bizerror"
	"net/http"
)

// ErrInvalidWorkflow rejects a definition which did not pass validation, the result is returned to the author
type ErrInvalidWorkflow struct {
	Result ValidationResult
}

func (e *ErrInvalidWorkflow) Error() string {
	return fmt.Sprintf("workflow is invalid: %d error(s)", len(e.Result.Errors))
}

func (e *ErrInvalidWorkflow) Respond() *bizerror.BizErrorDetail {
	return &bizerror.BizErrorDetail{
		Status:  http.StatusUnprocessableEntity,
		Code:    "workflow.invalid",
		Message: e.Error(),
		Data:    e.Result,
	}
}
