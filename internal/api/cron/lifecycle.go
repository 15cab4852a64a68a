package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/service"
)

// LifecycleHandler exposes the grace, suspension and termination scans as
// cron trigger endpoints. The host scheduler calls these; the scans are
// idempotent so overlapping or repeated triggers are harmless.
type LifecycleHandler struct {
	scheduler service.LifecycleScheduler
	logger    *logger.Logger
}

func NewLifecycleHandler(scheduler service.LifecycleScheduler, logger *logger.Logger) *LifecycleHandler {
	return &LifecycleHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

func (h *LifecycleHandler) RunGraceScan(c *gin.Context) {
	response, err := h.scheduler.RunGraceScan(c.Request.Context())
	if err != nil {
		h.logger.Errorw("grace scan failed", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *LifecycleHandler) RunSuspensionScan(c *gin.Context) {
	response, err := h.scheduler.RunSuspensionScan(c.Request.Context())
	if err != nil {
		h.logger.Errorw("suspension scan failed", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *LifecycleHandler) RunTerminationScan(c *gin.Context) {
	response, err := h.scheduler.RunTerminationScan(c.Request.Context())
	if err != nil {
		h.logger.Errorw("termination scan failed", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}
