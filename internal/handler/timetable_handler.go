package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/engine"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	"github.com/mishrapeekay/campuskona-timetable/internal/service"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
	"github.com/mishrapeekay/campuskona-timetable/pkg/response"
)

type runGenerator interface {
	Generate(ctx context.Context, req dto.GenerateRunRequest) (*models.GenerationRun, error)
	GetRun(ctx context.Context, id string) (*models.GenerationRun, error)
	ListRuns(ctx context.Context, termID string) ([]models.GenerationRun, error)
}

type runApplier interface {
	Apply(ctx context.Context, runID string) (*dto.ApplyResult, error)
	Rollback(ctx context.Context, runID string) (*dto.RollbackResult, error)
}

type runAnalyzer interface {
	Analyze(ctx context.Context, runID string) (*engine.Report, error)
}

type runExporter interface {
	Export(ctx context.Context, runID, format string) (*service.ExportPayload, error)
}

// TimetableHandler exposes the generation run lifecycle endpoints.
type TimetableHandler struct {
	generator runGenerator
	applier   runApplier
	analyzer  runAnalyzer
	exporter  runExporter
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(generator *service.GenerationService, applier *service.ApplyService, analyzer *service.AnalyzeService, exporter *service.ExportService) *TimetableHandler {
	return &TimetableHandler{generator: generator, applier: applier, analyzer: analyzer, exporter: exporter}
}

// Generate godoc
// @Summary Start a timetable generation run
// @Description Validates the scope and queues the search. Poll the returned run until it reaches COMPLETED or FAILED.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRunRequest true "Generation request"
// @Success 202 {object} response.Envelope
// @Router /timetable/runs [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	run, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// List godoc
// @Summary List generation runs for a term
// @Tags Timetable
// @Produce json
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs [get]
func (h *TimetableHandler) List(c *gin.Context) {
	runs, err := h.generator.ListRuns(c.Request.Context(), c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

// Get godoc
// @Summary Get one generation run
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	run, err := h.generator.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Apply godoc
// @Summary Commit a completed run to the live timetable
// @Description Replaces the live class and teacher views for the run's sections in one transaction and stores a rollback snapshot.
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs/{id}/apply [post]
func (h *TimetableHandler) Apply(c *gin.Context) {
	result, err := h.applier.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Rollback godoc
// @Summary Restore the schedule an applied run replaced
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs/{id}/rollback [post]
func (h *TimetableHandler) Rollback(c *gin.Context) {
	result, err := h.applier.Rollback(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Analyze godoc
// @Summary Quality report for a run's schedule
// @Description Returns fitness, utilization per teacher and room, subject distribution and flagged issues.
// @Tags Timetable
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/runs/{id}/analyze [get]
func (h *TimetableHandler) Analyze(c *gin.Context) {
	report, err := h.analyzer.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download a run's schedule as CSV or PDF
// @Tags Timetable
// @Produce octet-stream
// @Param id path string true "Run ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /timetable/runs/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	payload, err := h.exporter.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+payload.Filename+`"`)
	c.Data(http.StatusOK, payload.ContentType, payload.Content)
}
