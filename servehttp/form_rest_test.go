package servehttp_test

import (
	"formflow/bizerror"
	"formflow/domain/flow"
	"formflow/domain/state"
	"formflow/servehttp"
	"formflow/session"
	"formflow/testinfra"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestCreateFormRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := newRouter(servehttp.RegisterFormHandler)
	defer func() { flow.CreateFormFunc = flow.CreateForm }()

	t.Run("should validate form code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/forms", strings.NewReader(`{"code":"Expense Claim","name":"Expense"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(ContainSubstring(`'identifier' tag`))

		req = httptest.NewRequest(http.MethodPost, "/v1/forms", strings.NewReader(`{"code":"expense_claim"}`))
		status, _, _ = testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
	})

	t.Run("should create form", func(t *testing.T) {
		ts := time.Date(2020, 1, 1, 1, 0, 0, 0, time.Now().Location())
		flow.CreateFormFunc = func(c *flow.FormCreation, sec *session.Session) (*flow.FormDefinition, error) {
			return &flow.FormDefinition{ID: 12, Code: c.Code, Name: c.Name, CreateTime: ts}, nil
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/forms", strings.NewReader(`{"code":"expense_claim","name":"Expense"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusCreated))
		Expect(body).To(MatchJSON(`{"id":"12","code":"expense_claim","name":"Expense","create_time":"` + jsonTime(ts) + `"}`))
	})

	t.Run("should return 409 when form code is taken", func(t *testing.T) {
		flow.CreateFormFunc = func(c *flow.FormCreation, sec *session.Session) (*flow.FormDefinition, error) {
			return nil, bizerror.ErrFormExisted
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/forms", strings.NewReader(`{"code":"expense_claim","name":"Expense"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"form.existed","message":"form existed","data":null}`))
	})
}

func TestFormWorkflowRestAPI(t *testing.T) {
	RegisterTestingT(t)
	router := newRouter(servehttp.RegisterFormHandler)
	defer func() {
		flow.AttachWorkflowFunc = flow.AttachWorkflow
		flow.DetachWorkflowFunc = flow.DetachWorkflow
		flow.DetailFormFunc = flow.DetailForm
		flow.QueryFormsFunc = flow.QueryForms
	}()

	t.Run("should attach workflow as reduced config", func(t *testing.T) {
		ts := time.Date(2020, 1, 1, 1, 0, 0, 0, time.Now().Location())
		var formID types.ID
		flow.AttachWorkflowFunc = func(id types.ID, attaching *flow.WorkflowAttaching, sec *session.Session) (*flow.FormDefinition, error) {
			formID = id
			return &flow.FormDefinition{ID: id, Code: "expense_claim", Name: "Expense", WorkflowCode: attaching.WorkflowCode,
				Workflow: &flow.WorkflowConfig{InitialState: "open", States: []string{"open", "done"},
					Transitions: []state.Transition{{From: "open", To: "done", Action: "close"}}}, CreateTime: ts}, nil
		}
		req := httptest.NewRequest(http.MethodPut, "/v1/forms/12/workflow", strings.NewReader(`{"workflow_code":"leave"}`))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(formID).To(Equal(types.ID(12)))
		Expect(body).To(MatchJSON(`{"id":"12","code":"expense_claim","name":"Expense","workflow_code":"leave",
			"workflow":{"initial_state":"open","states":["open","done"],
				"transitions":[{"from":"open","to":"done","action":"close","requires_comment":false}]},
			"create_time":"` + jsonTime(ts) + `"}`))
	})

	t.Run("should require workflow code and a valid id", func(t *testing.T) {
		status, _, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodPut, "/v1/forms/12/workflow", strings.NewReader(`{}`)), router)
		Expect(status).To(Equal(http.StatusBadRequest))
		status, _, _ = testinfra.ExecuteRequest(httptest.NewRequest(http.MethodPut, "/v1/forms/abc/workflow",
			strings.NewReader(`{"workflow_code":"leave"}`)), router)
		Expect(status).To(Equal(http.StatusBadRequest))
	})

	t.Run("should detach workflow", func(t *testing.T) {
		flow.DetachWorkflowFunc = func(id types.ID, sec *session.Session) error { return bizerror.ErrWorkflowNotAttached }
		status, body, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/v1/forms/12/workflow", nil), router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"form.workflow_not_attached","message":"no workflow attached to form","data":null}`))

		flow.DetachWorkflowFunc = func(id types.ID, sec *session.Session) error { return nil }
		status, _, _ = testinfra.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/v1/forms/12/workflow", nil), router)
		Expect(status).To(Equal(http.StatusNoContent))
	})

	t.Run("should query and detail forms", func(t *testing.T) {
		ts := time.Date(2020, 1, 1, 1, 0, 0, 0, time.Now().Location())
		flow.QueryFormsFunc = func(sec *session.Session) (*[]flow.FormDefinition, error) {
			return &[]flow.FormDefinition{{ID: 1, Code: "a", Name: "A", CreateTime: ts}}, nil
		}
		flow.DetailFormFunc = func(id types.ID, sec *session.Session) (*flow.FormDefinition, error) {
			return &flow.FormDefinition{ID: id, Code: "a", Name: "A", CreateTime: ts}, nil
		}
		status, body, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/v1/forms", nil), router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`[{"id":"1","code":"a","name":"A","create_time":"` + jsonTime(ts) + `"}]`))

		status, body, _ = testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/v1/forms/3", nil), router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"id":"3","code":"a","name":"A","create_time":"` + jsonTime(ts) + `"}`))
	})
}
