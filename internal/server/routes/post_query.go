package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/pkg/ai"
	"github.com/wayfind-ai/wayfind/pkg/flow"
	"github.com/wayfind-ai/wayfind/pkg/logger"
	"github.com/wayfind-ai/wayfind/pkg/store"

	"github.com/labstack/echo/v4"
)

// queryStatus maps a workflow failure to an HTTP status and a client-safe
// message. Collaborator failures surface as 502 since the fault sits with
// an upstream provider, not the request.
func queryStatus(err error) (int, string) {
	var cfgErr *flow.ConfigurationError
	var routeErr *flow.RoutingError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, "Service is misconfigured"
	case errors.As(err, &routeErr):
		return http.StatusBadGateway, "Routing failed"
	case errors.Is(err, store.ErrNotInitialized):
		return http.StatusConflict, "Index not initialized, ingest documents first"
	case errors.Is(err, flow.ErrIterationLimit):
		return http.StatusInternalServerError, "Query exceeded the iteration limit"
	default:
		return http.StatusBadGateway, "Query failed"
	}
}

// QueryHandler runs a question through the workflow and returns the final
// answer in one response.
func QueryHandler(c echo.Context) error {
	type queryRequest struct {
		Question string `json:"question" validate:"required"`
	}

	type queryResponse struct {
		Message    string           `json:"message"`
		Question   string           `json:"question,omitempty"`
		Steps      []flow.Node      `json:"steps,omitempty"`
		Documents  int              `json:"documents"`
		RetryCount int              `json:"retry_count"`
		Metrics    *ai.ModelMetrics `json:"metrics,omitempty"`
	}

	data := new(queryRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	steps := make([]flow.Node, 0, 8)
	state, err := app.Engine.Stream(ctx, data.Question, func(ev flow.Event) {
		steps = append(steps, ev.Node)
	})
	if err != nil {
		logger.Error("[Query] workflow error", "err", err)
		status, msg := queryStatus(err)
		return c.JSON(status, queryResponse{Message: msg})
	}

	generation := state.Generation
	if generation == "" {
		generation = flow.NoAnswer
	}

	metrics := app.AiClient.GetMetrics()
	return c.JSON(http.StatusOK, queryResponse{
		Message:    generation,
		Question:   state.Question,
		Steps:      steps,
		Documents:  len(state.Documents),
		RetryCount: state.RetryCount,
		Metrics:    &metrics,
	})
}

// QueryStreamHandler runs a question through the workflow and streams one
// server-sent event per executed node, followed by a final done event.
func QueryStreamHandler(c echo.Context) error {
	type queryRequest struct {
		Question string `json:"question" validate:"required"`
	}

	data := new(queryRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	state, err := app.Engine.Stream(ctx, data.Question, func(ev flow.Event) {
		writeSSE(c, "node", ev)
		c.Response().Flush()
	})
	if err != nil {
		logger.Error("[Query] stream workflow error", "err", err)
		_, msg := queryStatus(err)
		writeSSE(c, "error", map[string]string{"error": msg})
		c.Response().Flush()
		return nil
	}

	if state.Generation == "" {
		state.Generation = flow.NoAnswer
	}
	metrics := app.AiClient.GetMetrics()
	writeSSE(c, "done", map[string]any{
		"state":   state,
		"metrics": metrics,
	})
	c.Response().Flush()
	return nil
}

func writeSSE(c echo.Context, event string, payload any) {
	fmt.Fprintf(c.Response(), "event: %s\ndata: ", event)
	enc := json.NewEncoder(c.Response())
	if err := enc.Encode(payload); err != nil {
		logger.Error("[Query] failed to encode stream event", "err", err)
	}
	fmt.Fprint(c.Response(), "\n")
}
