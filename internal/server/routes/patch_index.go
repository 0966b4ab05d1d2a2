package routes

import (
	"net/http"

	"github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PatchTopicsHandler replaces the corpus topic list the router classifies
// against, typically after an ingest changed what the corpus covers.
func PatchTopicsHandler(c echo.Context) error {
	type topicsRequest struct {
		Topics []string `json:"topics" validate:"required,min=1,dive,required"`
	}

	data := new(topicsRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	app.Router.UpdateTopics(data.Topics)

	logger.Info("[Index] routing topics updated", "topics", len(data.Topics))
	return c.JSON(http.StatusOK, map[string]string{"message": "Topics updated"})
}
