package routes

import (
	"net/http"

	"github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetIndexHandler reports the state of the passage index.
func GetIndexHandler(c echo.Context) error {
	type indexResponse struct {
		Ready    bool             `json:"ready"`
		Passages int64            `json:"passages"`
		Sources  map[string]int64 `json:"sources"`
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	count, err := app.Store.Count(ctx)
	if err != nil {
		logger.Error("[Index] failed to count passages", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	sources, err := app.Store.Sources(ctx)
	if err != nil {
		logger.Error("[Index] failed to list sources", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	return c.JSON(http.StatusOK, indexResponse{
		Ready:    app.Retriever.Ready(),
		Passages: count,
		Sources:  sources,
	})
}
