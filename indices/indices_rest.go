package indices

import (
	"formflow/bizerror"
	"formflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	PathIndexRequests  = "/v1/index-requests"
	PathWorkflowSearch = "/v1/workflow-search"
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRequests, middleWares...)
	g.POST("", handleIndexRequest)

	s := r.Group(PathWorkflowSearch, middleWares...)
	s.GET("", handleWorkflowSearch)
}

func handleIndexRequest(c *gin.Context) {
	success, err := ScheduleNewSyncRunFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": success})
}

func handleWorkflowSearch(c *gin.Context) {
	query := WorkflowSearchQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	result, err := SearchWorkflowsFunc(session.ExtractSessionFromGinContext(c).Ctx(), query)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
