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

// IngestDocumentsHandler enqueues an ingest job for the given sources. The
// worker loads, splits, embeds, and indexes them under the build lease.
func IngestDocumentsHandler(c echo.Context) error {
	type sourceInput struct {
		ID string `json:"id"`
		// Path is ignored for sample sources, which carry their own data.
		Path        string `json:"path"`
		Type        string `json:"type" validate:"required,oneof=text csv web s3 sample"`
		Description string `json:"description"`
	}

	type ingestRequest struct {
		Sources []sourceInput `json:"sources" validate:"required,min=1,dive"`
		Replace bool          `json:"replace"`
	}

	type ingestResponse struct {
		Message string `json:"message"`
		JobID   string `json:"job_id,omitempty"`
	}

	data := new(ingestRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid request body",
		})
	}

	sources := make([]queue.IngestSourceMsg, 0, len(data.Sources))
	for _, src := range data.Sources {
		id := src.ID
		if id == "" {
			id = util.NewID()
		}
		sources = append(sources, queue.IngestSourceMsg{
			ID:          id,
			Path:        src.Path,
			Type:        src.Type,
			Description: src.Description,
		})
	}

	msg := queue.QueueIngestMsg{
		JobID:   util.NewID(),
		Sources: sources,
		Replace: data.Replace,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.IngestQueue, payload); err != nil {
		logger.Error("[Ingest] failed to enqueue job", "err", err)
		return c.JSON(http.StatusInternalServerError, ingestResponse{
			Message: "Failed to enqueue ingest job",
		})
	}

	logger.Info("[Ingest] job enqueued", "job_id", msg.JobID, "sources", len(sources))
	return c.JSON(http.StatusAccepted, ingestResponse{
		Message: "Ingest job enqueued",
		JobID:   msg.JobID,
	})
}
