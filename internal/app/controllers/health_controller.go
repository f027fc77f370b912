package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/courseenroll/internal/app/models/dto"
)

const healthCheckTimeout = 2 * time.Second

// Pinger checks a backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthController reports liveness and database reachability
type HealthController struct {
	db     Pinger
	logger zerolog.Logger
}

// NewHealthController creates a new HealthController. db may be nil.
func NewHealthController(db Pinger, logger zerolog.Logger) *HealthController {
	return &HealthController{db: db, logger: logger}
}

// Health reports service health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.HealthResponse} "Service is up"
// @Failure 503 {object} dto.APIResponse{data=dto.HealthResponse} "Database unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	health := dto.HealthResponse{Status: "UP", Database: "NONE"}
	if c.db == nil {
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(health, ""))
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		c.logger.Warn().Err(err).Msg("Health check database ping failed")
		health.Status, health.Database = "DOWN", "DOWN"
		response := dto.NewSuccessResponse(health, "")
		response.Success = false
		ctx.JSON(http.StatusServiceUnavailable, response)
		return
	}

	health.Database = "UP"
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(health, ""))
}
