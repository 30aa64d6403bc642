package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-civicfix/analytics"
	"go-civicfix/escalation"
)

// GetAnalytics returns the full operator analytics bundle.
func GetAnalytics(c *gin.Context, svc *analytics.Service) {
	payload, err := svc.Build(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func GetEscalationStats(c *gin.Context, mon *escalation.Monitor) {
	stats, err := mon.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TriggerSweep runs an escalation sweep on demand. Harmless to call while a
// scheduled sweep runs; the overlapping call is a no-op.
func TriggerSweep(c *gin.Context, mon *escalation.Monitor) {
	count, err := mon.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"escalated": count})
}
