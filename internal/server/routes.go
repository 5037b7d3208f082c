package server

import (
	"privaflow/internal/server/middleware"
	"privaflow/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Analysis run routes
	apiRoutes.POST("/analyses", routes.CreateAnalysisHandler)
	apiRoutes.GET("/analyses/:id", routes.GetAnalysisHandler)
	apiRoutes.GET("/analyses/:id/graph", routes.GetAnalysisGraphHandler)
	apiRoutes.GET("/analyses/:id/metrics/:name", routes.GetAnalysisMetricHandler)
	apiRoutes.GET("/analyses/:id/sample", routes.GetAnalysisSampleHandler)
}
