package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smsrelay-dev/smsrelay-admin/internal/admin"

	log "github.com/sirupsen/logrus"
)

// StatsHandler serves the admin dashboard counters.
type StatsHandler struct {
	admin *admin.Service
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(svc *admin.Service) *StatsHandler {
	return &StatsHandler{admin: svc}
}

// Get returns platform-wide aggregates.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, errStats := h.admin.GetStats(c.Request.Context())
	if errStats != nil {
		log.WithError(errStats).Error("stats: aggregate failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get stats failed"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
