package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"privaflow/internal/queue"
	"privaflow/internal/server/middleware"
	"privaflow/internal/util"
	"privaflow/pkg/logger"
	"privaflow/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateAnalysisHandler accepts a multipart upload with the extraction
// records CSV (field "records"), an optional segments CSV (field "segments")
// and run options, creates a pending run and queues it for the worker.
func CreateAnalysisHandler(c echo.Context) error {
	type createAnalysisBody struct {
		MainParty  string  `form:"main_party" validate:"required"`
		TopN       int     `form:"top_n" validate:"gte=0"`
		SampleSize int     `form:"sample_size" validate:"gte=0"`
		SampleRate float64 `form:"sample_rate" validate:"gte=0,lte=1"`
		Seed       int64   `form:"seed"`
	}

	type createAnalysisResponse struct {
		Message string `json:"message"`
		RunID   string `json:"run_id,omitempty"`
	}

	data := new(createAnalysisBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createAnalysisResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createAnalysisResponse{
			Message: "Invalid request body",
		})
	}

	records, err := readFormFile(c, "records")
	if err != nil {
		return c.JSON(http.StatusBadRequest, createAnalysisResponse{
			Message: "Missing records file",
		})
	}
	segments, err := readFormFile(c, "segments")
	if err != nil {
		segments = ""
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createAnalysisResponse{
			Message: "Unauthorized",
		})
	}

	runID, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate run id", "err", err)
		return c.JSON(http.StatusInternalServerError, createAnalysisResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	run := &store.AnalysisRun{
		ID:          runID,
		Status:      store.StatusPending,
		MainParty:   data.MainParty,
		TopN:        data.TopN,
		SampleSize:  data.SampleSize,
		SampleRate:  data.SampleRate,
		Seed:        data.Seed,
		RecordsCSV:  records,
		SegmentsCSV: segments,
	}
	if err := app.Storage.CreateRun(ctx, run); err != nil {
		logger.Error("Failed to create run", "err", err)
		return c.JSON(http.StatusInternalServerError, createAnalysisResponse{
			Message: "Internal server error",
		})
	}

	msgBytes, err := json.Marshal(queue.AnalyzeMsg{
		Message: "New analysis run",
		RunID:   runID,
	})
	if err != nil {
		logger.Error("Failed to marshal queue message", "run", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, createAnalysisResponse{
			Message: "Internal server error",
		})
	}
	err = util.RetryErr(3, func() error {
		return queue.PublishFIFO(app.Queue, queue.AnalyzeQueue, msgBytes)
	})
	if err != nil {
		logger.Error("Failed to publish run", "run", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, createAnalysisResponse{
			Message: "Internal server error",
		})
	}

	logger.Info("[Server] Analysis run queued", "run", runID, "main_party", data.MainParty)
	return c.JSON(http.StatusAccepted, createAnalysisResponse{
		Message: "Analysis queued",
		RunID:   runID,
	})
}

func readFormFile(c echo.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	return string(content), nil
}
