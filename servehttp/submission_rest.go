package servehttp

import (
	"formflow/bizerror"
	"formflow/domain/submission"
	"formflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterSubmissionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/submissions", middleWares...)
	g.POST("", handleCreateSubmission)
	g.GET("", handleQuerySubmissions)
	g.GET(":id", handleDetailSubmission)
	g.GET(":id/steps", handleQuerySubmissionSteps)
	g.GET(":id/transitions", handleQueryEligibleTransitions)
	g.POST(":id/transitions", handleTransitSubmission)
}

func handleCreateSubmission(c *gin.Context) {
	creation := submission.SubmissionCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	s, err := submission.CreateSubmissionFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, s)
}

func handleQuerySubmissions(c *gin.Context) {
	query := submission.SubmissionQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	results, err := submission.QuerySubmissionsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, results)
}

func handleDetailSubmission(c *gin.Context) {
	s, err := submission.DetailSubmissionFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, s)
}

func handleQuerySubmissionSteps(c *gin.Context) {
	steps, err := submission.QuerySubmissionStepsFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, steps)
}

func handleQueryEligibleTransitions(c *gin.Context) {
	transitions, err := submission.EligibleSubmissionTransitionsFunc(parseID(c, "id"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, transitions)
}

func handleTransitSubmission(c *gin.Context) {
	id := parseID(c, "id")
	transiting := submission.SubmissionTransiting{}
	if err := c.ShouldBindBodyWith(&transiting, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	s, err := submission.TransitSubmissionFunc(id, &transiting, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, s)
}
