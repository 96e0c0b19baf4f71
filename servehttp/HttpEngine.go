package servehttp

import (
	"context"
	"formflow/bizerror"
	"formflow/infra/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BuildHttpEngine creates the gin engine with the ingress middlewares every route shares
func BuildHttpEngine() *gin.Engine {
	RegisterValidators()

	engine := gin.New()
	engine.Use(gin.Recovery(), tracing.TracingIngress(), gin.Logger(), bizerror.ErrorHandling())
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	return engine
}

// StartHTTPServer serves until SIGINT or SIGTERM, then shuts down gracefully. onShutdown runs after the server stopped.
func StartHTTPServer(engine *gin.Engine, addr string, onShutdown ...func()) {
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// will call os.Exit(1)
			logrus.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 send syscall.SIGINT
	// kill -9 send syscall.SIGKILL, can't be caught
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("[QUIT] shutdown signal has been received, the service will exit in 3 seconds.")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	// graceful shutdown http.Server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("[QUIT] http server shutdown failed: %v", err)
	}
	logrus.Info("[QUIT] http server is shutdown gracefully, new request will be rejected.")

	for _, f := range onShutdown {
		f()
	}
	logrus.Info("[QUIT] service exiting")
}
