package server

import (
	"github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Query routes
	apiRoutes.POST("/query", routes.QueryHandler)
	apiRoutes.POST("/query/stream", routes.QueryStreamHandler)

	// Index management routes
	apiRoutes.GET("/index", routes.GetIndexHandler)
	apiRoutes.POST("/documents", routes.IngestDocumentsHandler, middleware.RequireAdmin)
	apiRoutes.DELETE("/documents", routes.DeleteDocumentsHandler, middleware.RequireAdmin)
	apiRoutes.PATCH("/index/topics", routes.PatchTopicsHandler, middleware.RequireAdmin)

	// Evaluation routes
	apiRoutes.POST("/eval", routes.EvalHandler, middleware.RequireAdmin)
}
