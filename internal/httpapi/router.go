package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter registers the study routes on a fresh gin engine.
func NewRouter(c *Controller, maxUploadMB int, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors())
	if maxUploadMB > 0 {
		router.MaxMultipartMemory = int64(maxUploadMB) << 20
	}

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "learnquick"})
	})
	router.POST("/upload", limitBody(maxUploadMB), c.Upload)
	router.POST("/ask", c.Ask)
	router.POST("/mcq", c.Quiz)
	router.POST("/check", c.Check)
	router.POST("/summary", c.Summary)
	router.GET("/topics", c.Topics)
	router.GET("/mindmap", c.MindMap)
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Info("http request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"took", time.Since(start),
		)
	}
}

func cors() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Access-Control-Allow-Origin", "*")
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

func limitBody(maxMB int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if maxMB > 0 {
			ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, int64(maxMB)<<20)
		}
		ctx.Next()
	}
}
