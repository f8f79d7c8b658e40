package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/engine"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	"github.com/mishrapeekay/campuskona-timetable/internal/service"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
)

type generatorMock struct {
	captured    dto.GenerateRunRequest
	generateErr error
	run         *models.GenerationRun
	runs        []models.GenerationRun
	listedTerm  string
}

func (m *generatorMock) Generate(_ context.Context, req dto.GenerateRunRequest) (*models.GenerationRun, error) {
	m.captured = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return m.run, nil
}

func (m *generatorMock) GetRun(_ context.Context, id string) (*models.GenerationRun, error) {
	if m.run == nil || m.run.ID != id {
		return nil, appErrors.ErrNotFound
	}
	return m.run, nil
}

func (m *generatorMock) ListRuns(_ context.Context, termID string) ([]models.GenerationRun, error) {
	m.listedTerm = termID
	return m.runs, nil
}

type applierMock struct {
	applyErr   error
	applied    string
	rolledBack string
}

func (m *applierMock) Apply(_ context.Context, runID string) (*dto.ApplyResult, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	m.applied = runID
	return &dto.ApplyResult{Message: "schedule applied", ClassEntriesCreated: 4}, nil
}

func (m *applierMock) Rollback(_ context.Context, runID string) (*dto.RollbackResult, error) {
	m.rolledBack = runID
	return &dto.RollbackResult{Message: "schedule restored from snapshot"}, nil
}

type analyzerMock struct {
	report *engine.Report
	err    error
}

func (m *analyzerMock) Analyze(context.Context, string) (*engine.Report, error) {
	return m.report, m.err
}

type exporterMock struct {
	payload *service.ExportPayload
	format  string
}

func (m *exporterMock) Export(_ context.Context, _, format string) (*service.ExportPayload, error) {
	m.format = format
	return m.payload, nil
}

func testContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestGenerateAccepted(t *testing.T) {
	mockSvc := &generatorMock{run: &models.GenerationRun{ID: "run-1", Status: models.RunStatusDraft}}
	h := &TimetableHandler{generator: mockSvc}
	payload := []byte(`{"termId":"term-1","sectionIds":["sec-a"],"workingDays":["MONDAY","TUESDAY"],"populationSize":20}`)
	c, w := testContext(t, http.MethodPost, "/timetable/runs", payload)

	h.Generate(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, "term-1", mockSvc.captured.TermID)
	require.Equal(t, []string{"sec-a"}, mockSvc.captured.SectionIDs)
	require.Equal(t, 20, mockSvc.captured.PopulationSize)
}

func TestGenerateMalformedBody(t *testing.T) {
	h := &TimetableHandler{generator: &generatorMock{}}
	c, w := testContext(t, http.MethodPost, "/timetable/runs", []byte(`{"termId":`))

	h.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateServiceError(t *testing.T) {
	mockSvc := &generatorMock{generateErr: appErrors.ErrScopeConflict}
	h := &TimetableHandler{generator: mockSvc}
	payload := []byte(`{"termId":"term-1","sectionIds":["sec-a"],"workingDays":["MONDAY"]}`)
	c, w := testContext(t, http.MethodPost, "/timetable/runs", payload)

	h.Generate(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	require.Equal(t, appErrors.ErrScopeConflict.Code, envelope.Error.Code)
}

func TestListPassesTermQuery(t *testing.T) {
	mockSvc := &generatorMock{runs: []models.GenerationRun{{ID: "run-1"}}}
	h := &TimetableHandler{generator: mockSvc}
	c, w := testContext(t, http.MethodGet, "/timetable/runs?termId=term-1", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "term-1", mockSvc.listedTerm)
}

func TestGetRunNotFound(t *testing.T) {
	h := &TimetableHandler{generator: &generatorMock{}}
	c, w := testContext(t, http.MethodGet, "/timetable/runs/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyRoutesRunID(t *testing.T) {
	mockSvc := &applierMock{}
	h := &TimetableHandler{applier: mockSvc}
	c, w := testContext(t, http.MethodPost, "/timetable/runs/run-1/apply", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Apply(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "run-1", mockSvc.applied)
}

func TestApplyConflict(t *testing.T) {
	h := &TimetableHandler{applier: &applierMock{applyErr: appErrors.ErrRollbackUnavailable}}
	c, w := testContext(t, http.MethodPost, "/timetable/runs/run-1/apply", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Apply(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRollbackRoutesRunID(t *testing.T) {
	mockSvc := &applierMock{}
	h := &TimetableHandler{applier: mockSvc}
	c, w := testContext(t, http.MethodPost, "/timetable/runs/run-1/rollback", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Rollback(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "run-1", mockSvc.rolledBack)
}

func TestAnalyzeReturnsReport(t *testing.T) {
	report := &engine.Report{Fitness: 3.5, Summary: "2 issues flagged"}
	h := &TimetableHandler{analyzer: &analyzerMock{report: report}}
	c, w := testContext(t, http.MethodGet, "/timetable/runs/run-1/analyze", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Analyze(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data engine.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 3.5, envelope.Data.Fitness)
}

func TestExportSetsDisposition(t *testing.T) {
	mockSvc := &exporterMock{payload: &service.ExportPayload{
		Content:     []byte("Section,Slot\n"),
		ContentType: "text/csv",
		Filename:    "timetable-run-1.csv",
	}}
	h := &TimetableHandler{exporter: mockSvc}
	c, w := testContext(t, http.MethodGet, "/timetable/runs/run-1/export", nil)
	c.Params = gin.Params{{Key: "id", Value: "run-1"}}

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "csv", mockSvc.format)
	require.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "timetable-run-1.csv")
	require.Equal(t, "Section,Slot\n", w.Body.String())
}
