package routes

import (
	"github.com/gin-gonic/gin"

	"go-civicfix/analytics"
	"go-civicfix/escalation"
	"go-civicfix/handlers"
	"go-civicfix/ingest"
)

func SetupRouter(ing *ingest.Service, mon *escalation.Monitor, an *analytics.Service) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "CivicFix report engine",
		})
	})

	api := r.Group("/api/civicfix")
	{
		api.POST("/reports", func(c *gin.Context) { handlers.SubmitReport(c, ing) })
		api.GET("/reports/:id", func(c *gin.Context) { handlers.GetReport(c, ing) })
		api.GET("/reports/:id/duplicates", func(c *gin.Context) { handlers.GetReportDuplicates(c, ing) })
		api.PATCH("/reports/:id/status", func(c *gin.Context) { handlers.UpdateReportStatus(c, ing) })

		api.GET("/analytics", func(c *gin.Context) { handlers.GetAnalytics(c, an) })
		api.GET("/escalations/stats", func(c *gin.Context) { handlers.GetEscalationStats(c, mon) })
		api.POST("/escalations/sweep", func(c *gin.Context) { handlers.TriggerSweep(c, mon) })
	}

	return r
}
