package handlers

import (
	"net/http"

	"snack-gateway/consumer"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	tracker *consumer.ActivityTracker
}

func NewStatsHandler(tracker *consumer.ActivityTracker) *StatsHandler {
	return &StatsHandler{tracker: tracker}
}

// Orders handles GET /api/stats/orders
func (h *StatsHandler) Orders(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.Snapshot())
}
