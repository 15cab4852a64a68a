package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openams/openams/internal/logger"
	"github.com/openams/openams/internal/service"
)

// BillingHandler exposes the renewal and dunning retry scans as cron
// trigger endpoints.
type BillingHandler struct {
	planner service.RenewalPlanner
	dunning service.DunningService
	logger  *logger.Logger
}

func NewBillingHandler(planner service.RenewalPlanner, dunning service.DunningService, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		planner: planner,
		dunning: dunning,
		logger:  logger,
	}
}

func (h *BillingHandler) RunRenewalScan(c *gin.Context) {
	response, err := h.planner.RunRenewalScan(c.Request.Context())
	if err != nil {
		h.logger.Errorw("renewal scan failed", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *BillingHandler) RunDunningRetryScan(c *gin.Context) {
	response, err := h.dunning.RunDunningRetryScan(c.Request.Context())
	if err != nil {
		h.logger.Errorw("dunning retry scan failed", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}
