package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-prompt-enhancer/internal/metrics"
)

// NewRouter builds the gin engine with the middleware chain and routes.
// A nil m leaves out /metrics. origins lists the browser origins allowed
// to call the server.
func NewRouter(h *MessageHandler, m *metrics.Metrics, origins []string, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(origins))
	router.Use(LoggingMiddleware(logger))
	if m != nil {
		router.Use(MetricsMiddleware(m))
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	h.Routes(router)

	return router
}
