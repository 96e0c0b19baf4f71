package sessions

import (
	"formflow/account"
	"formflow/bizerror"
	"formflow/session"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterSessionHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/session", middleWares...)
	g.GET("", DetailSessionSecurityContext)
}

// DetailSessionSecurityContext reloads the capabilities of the session, the token keeps its remaining lifetime
func DetailSessionSecurityContext(c *gin.Context) {
	sec := session.ExtractSessionFromGinContext(c)

	now := time.Now()
	ttl := session.TokenExpiration - now.Sub(sec.SigningTime)
	if ttl <= 0 {
		panic(bizerror.ErrUnauthenticated)
	}
	perms, err := account.LoadPermFunc(c.Request.Context(), sec.Identity.ID)
	if err != nil {
		panic(err)
	}
	refreshed := session.Session{Token: sec.Token, Identity: sec.Identity, Perms: perms, SigningTime: sec.SigningTime}
	session.TokenCache.Set(sec.Token, &refreshed, ttl)
	c.JSON(http.StatusOK, &refreshed)
}
