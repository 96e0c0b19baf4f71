package servehttp

import (
	"formflow/bizerror"
	"formflow/domain/flow"
	"formflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type TransitionQuery struct {
	FromState string `form:"fromState"`
	ToState   string `form:"toState"`
}

func RegisterWorkflowHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.POST("/v1/workflow-validations", append(middleWares, handleValidateWorkflow)...)

	g := r.Group("/v1/workflows", middleWares...)
	g.POST("", handleCreateWorkflow)
	g.GET("", handleQueryWorkflows)
	g.GET(":code", handleDetailWorkflow)
	g.PUT(":code", handleUpdateWorkflow)
	g.PATCH(":code", handlePatchWorkflow)
	g.DELETE(":code", handleDeleteWorkflow)
	g.GET(":code/transitions", handleQueryTransitions)
}

// handleValidateWorkflow checks a draft definition, problems are reported in the result and never as an error status
func handleValidateWorkflow(c *gin.Context) {
	def := flow.WorkflowDefinition{}
	if err := c.ShouldBindBodyWith(&def, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	c.JSON(http.StatusOK, flow.Validate(def))
}

func handleQueryWorkflows(c *gin.Context) {
	query := flow.WorkflowQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	flows, err := flow.QueryWorkflowsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, flows)
}

func handleCreateWorkflow(c *gin.Context) {
	def := flow.WorkflowDefinition{}
	if err := c.ShouldBindBodyWith(&def, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := flow.CreateWorkflowFunc(&def, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, detail)
}

func handleDetailWorkflow(c *gin.Context) {
	detail, err := flow.DetailWorkflowFunc(c.Param("code"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleUpdateWorkflow(c *gin.Context) {
	def := flow.WorkflowDefinition{}
	if err := c.ShouldBindBodyWith(&def, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := flow.UpdateWorkflowFunc(c.Param("code"), &def, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handlePatchWorkflow(c *gin.Context) {
	patching := flow.WorkflowPatching{}
	if err := c.ShouldBindBodyWith(&patching, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := flow.PatchWorkflowFunc(c.Param("code"), &patching, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleDeleteWorkflow(c *gin.Context) {
	if err := flow.DeleteWorkflowFunc(c.Param("code"), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func handleQueryTransitions(c *gin.Context) {
	query := TransitionQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	transitions, err := flow.QueryWorkflowTransitionsFunc(c.Param("code"), query.FromState, query.ToState,
		session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, transitions)
}
