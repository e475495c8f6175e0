package api

import (
	"github.com/gin-gonic/gin"

	"github.com/finsight/finsight-go/internal/api/handlers"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Analysis  *handlers.AnalysisHandler
	Reports   *handlers.ReportsHandler
	Chart     *handlers.ChartHandler
	Watchlist *handlers.WatchlistHandler
	Health    *handlers.HealthHandler
}

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")
	{
		analysis := v1.Group("/analysis")
		{
			analysis.POST("", h.Analysis.CreateAnalysis)
			analysis.GET("", h.Analysis.ListJobs)
			analysis.GET("/:id", h.Analysis.GetJob)
			analysis.GET("/:id/report", h.Analysis.GetJobReport)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/:id", h.Reports.GetReport)
		}

		chart := v1.Group("/chart")
		{
			chart.GET("/:ticker", h.Chart.GetChart)
		}

		watchlist := v1.Group("/watchlist")
		{
			watchlist.GET("", h.Watchlist.ListTickers)
			watchlist.POST("", h.Watchlist.AddTicker)
			watchlist.DELETE("/:ticker", h.Watchlist.RemoveTicker)
		}
	}
}
