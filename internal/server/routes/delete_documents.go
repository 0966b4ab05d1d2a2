package routes

import (
	"encoding/json"
	"net/http"

	"github.com/wayfind-ai/wayfind/internal/queue"
	"github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/internal/util"
	"github.com/wayfind-ai/wayfind/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DeleteDocumentsHandler removes indexed passages. With a source query
// parameter the removal runs as a queued job under the build lease; without
// one the whole index is cleared immediately.
func DeleteDocumentsHandler(c echo.Context) error {
	type deleteResponse struct {
		Message string `json:"message"`
		JobID   string `json:"job_id,omitempty"`
		Removed int64  `json:"removed,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	source := c.QueryParam("source")

	if source == "" {
		if err := app.Store.Clear(c.Request().Context()); err != nil {
			logger.Error("[Ingest] failed to clear index", "err", err)
			return c.JSON(http.StatusInternalServerError, deleteResponse{
				Message: "Failed to clear index",
			})
		}
		logger.Info("[Ingest] index cleared")
		return c.JSON(http.StatusOK, deleteResponse{
			Message: "Index cleared",
		})
	}

	msg := queue.QueueDeleteMsg{
		JobID:  util.NewID(),
		Source: source,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.DeleteQueue, payload); err != nil {
		logger.Error("[Ingest] failed to enqueue delete job", "err", err)
		return c.JSON(http.StatusInternalServerError, deleteResponse{
			Message: "Failed to enqueue delete job",
		})
	}

	logger.Info("[Ingest] delete job enqueued", "job_id", msg.JobID, "source", source)
	return c.JSON(http.StatusAccepted, deleteResponse{
		Message: "Delete job enqueued",
		JobID:   msg.JobID,
	})
}
