package servehttp

import (
	"formflow/bizerror"
	"formflow/event"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterEventHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/events", middleWares...)
	g.GET("", handleQueryEvents)
}

func handleQueryEvents(c *gin.Context) {
	query := event.EventQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := event.QueryEventsFunc(c.Request.Context(), query)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
