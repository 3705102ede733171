package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/slotplanner/internal/config"
	"github.com/limaJavier/slotplanner/internal/logger"
	"github.com/limaJavier/slotplanner/internal/metrics"
	"github.com/limaJavier/slotplanner/internal/requestid"
)

// NewRouter wires middlewares and routes. m may be nil when metrics are disabled.
func NewRouter(cfg *config.Config, logr *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(logr))
	if m != nil {
		r.Use(m.GinMiddleware())
	}

	handler := NewHandler(cfg.ParsePolicy(), cfg.Solver.DefaultAlgorithm, cfg.Solver.RandomSeed, m, logr)

	r.GET("/health", handler.Health)
	r.POST("/schedule", handler.Schedule)
	r.POST("/check", handler.Check)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	return r
}
