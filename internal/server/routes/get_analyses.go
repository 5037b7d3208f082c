package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"privaflow/internal/server/middleware"
	"privaflow/pkg/logger"
	"privaflow/pkg/store"
	pgxstore "privaflow/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetAnalysisHandler returns the run status and, once completed, the basics
// summary.
func GetAnalysisHandler(c echo.Context) error {
	type getAnalysisResponse struct {
		Message string             `json:"message"`
		Run     *store.AnalysisRun `json:"run,omitempty"`
		Basics  json.RawMessage    `json:"basics,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	run, err := app.Storage.GetRun(ctx, c.Param("id"))
	if errors.Is(err, pgxstore.ErrRunNotFound) {
		return c.JSON(http.StatusNotFound, getAnalysisResponse{Message: "Run not found"})
	}
	if err != nil {
		logger.Error("Failed to load run", "run", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, getAnalysisResponse{Message: "Internal server error"})
	}

	resp := getAnalysisResponse{Message: "OK", Run: run}
	if run.Status == store.StatusCompleted && len(run.Basics) > 0 {
		resp.Basics = run.Basics
	}
	return c.JSON(http.StatusOK, resp)
}

// GetAnalysisGraphHandler returns the persisted node and edge lists.
func GetAnalysisGraphHandler(c echo.Context) error {
	type getGraphResponse struct {
		Message  string            `json:"message"`
		Entities []store.RunEntity `json:"entities,omitempty"`
		Edges    []store.RunEdge   `json:"edges,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	entities, edges, err := app.Storage.GetGraph(ctx, c.Param("id"))
	if errors.Is(err, pgxstore.ErrRunNotFound) {
		return c.JSON(http.StatusNotFound, getGraphResponse{Message: "Run not found"})
	}
	if err != nil {
		logger.Error("Failed to load graph", "run", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, getGraphResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getGraphResponse{
		Message:  "OK",
		Entities: entities,
		Edges:    edges,
	})
}

// GetAnalysisMetricHandler returns one metric table by name, ordered by rank.
func GetAnalysisMetricHandler(c echo.Context) error {
	type getMetricResponse struct {
		Message string            `json:"message"`
		Metric  string            `json:"metric,omitempty"`
		Rows    []store.MetricRow `json:"rows,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	name := c.Param("name")
	rows, err := app.Storage.GetMetric(ctx, c.Param("id"), name)
	if errors.Is(err, pgxstore.ErrRunNotFound) {
		return c.JSON(http.StatusNotFound, getMetricResponse{Message: "Run not found"})
	}
	if err != nil {
		logger.Error("Failed to load metric", "run", c.Param("id"), "metric", name, "err", err)
		return c.JSON(http.StatusInternalServerError, getMetricResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getMetricResponse{
		Message: "OK",
		Metric:  name,
		Rows:    rows,
	})
}

// GetAnalysisSampleHandler returns the persisted verification sample rows.
func GetAnalysisSampleHandler(c echo.Context) error {
	type getSampleResponse struct {
		Message string            `json:"message"`
		Rows    []store.SampleRow `json:"rows,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	rows, err := app.Storage.GetSample(ctx, c.Param("id"))
	if errors.Is(err, pgxstore.ErrRunNotFound) {
		return c.JSON(http.StatusNotFound, getSampleResponse{Message: "Run not found"})
	}
	if err != nil {
		logger.Error("Failed to load sample", "run", c.Param("id"), "err", err)
		return c.JSON(http.StatusInternalServerError, getSampleResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusOK, getSampleResponse{
		Message: "OK",
		Rows:    rows,
	})
}
