package servehttp

import (
	"formflow/bizerror"
	"formflow/domain/flow"
	"formflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterFormHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/forms", middleWares...)
	g.POST("", handleCreateForm)
	g.GET("", handleQueryForms)
	g.GET(":id", handleDetailForm)
	g.PUT(":id/workflow", handleAttachWorkflow)
	g.DELETE(":id/workflow", handleDetachWorkflow)
}

func handleCreateForm(c *gin.Context) {
	creation := flow.FormCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	form, err := flow.CreateFormFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, form)
}

func handleQueryForms(c *gin.Context) {
	forms, err := flow.QueryFormsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, forms)
}

func handleDetailForm(c *gin.Context) {
	form, err := flow.DetailFormFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, form)
}

func handleAttachWorkflow(c *gin.Context) {
	id := parseID(c, "id")
	attaching := flow.WorkflowAttaching{}
	if err := c.ShouldBindBodyWith(&attaching, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	form, err := flow.AttachWorkflowFunc(id, &attaching, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, form)
}

func handleDetachWorkflow(c *gin.Context) {
	if err := flow.DetachWorkflowFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context, param string) types.ID {
	id, err := types.ParseID(c.Param(param))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return id
}
