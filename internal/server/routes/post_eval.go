package routes

import (
	"net/http"

	"github.com/wayfind-ai/wayfind/internal/server/middleware"
	"github.com/wayfind-ai/wayfind/pkg/eval"

	"github.com/labstack/echo/v4"
)

// EvalHandler runs a batch of questions through the workflow and returns
// per-question metrics plus an aggregate report. Each request gets its own
// evaluator so concurrent batches do not mix results.
func EvalHandler(c echo.Context) error {
	type evalRequest struct {
		Questions []string `json:"questions" validate:"required,min=1,dive,required"`
	}

	type evalResponse struct {
		Message string         `json:"message,omitempty"`
		Results []eval.Metrics `json:"results,omitempty"`
		Report  *eval.Report   `json:"report,omitempty"`
	}

	data := new(evalRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, evalResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, evalResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App

	evaluator := eval.NewEvaluator(app.Engine)
	results := evaluator.EvaluateBatch(c.Request().Context(), data.Questions)
	if len(results) == 0 {
		return c.JSON(http.StatusBadGateway, evalResponse{
			Message: "Every question failed",
		})
	}

	report := evaluator.GenerateReport()
	return c.JSON(http.StatusOK, evalResponse{
		Results: results,
		Report:  &report,
	})
}
