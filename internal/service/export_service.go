package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/mishrapeekay/campuskona-timetable/internal/dto"
	"github.com/mishrapeekay/campuskona-timetable/internal/models"
	"github.com/mishrapeekay/campuskona-timetable/pkg/config"
	appErrors "github.com/mishrapeekay/campuskona-timetable/pkg/errors"
	"github.com/mishrapeekay/campuskona-timetable/pkg/export"
)

type lookupReader interface {
	ListSubjects(ctx context.Context, ids []string) ([]models.Subject, error)
	ListTeachers(ctx context.Context, ids []string) ([]models.Teacher, error)
}

// ExportService renders a run's schedule as a downloadable CSV or PDF grid:
// one row per slot, one column per working day.
type ExportService struct {
	runs    analyzeRunReader
	lookups lookupReader
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
	cfg     config.ExportConfig
}

// NewExportService constructs the service.
func NewExportService(runs analyzeRunReader, lookups lookupReader, logger *zap.Logger, cfg config.ExportConfig) *ExportService {
	return &ExportService{
		runs:    runs,
		lookups: lookups,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		cfg:     cfg,
	}
}

// ExportPayload carries rendered bytes with transport metadata.
type ExportPayload struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Export renders the run's schedule in the requested format ("csv" or "pdf").
func (s *ExportService) Export(ctx context.Context, runID, format string) (*ExportPayload, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "export is disabled")
	}

	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, err
	}
	if run.Status != models.RunStatusCompleted && run.Status != models.RunStatusApplied {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("run in state %s has no schedule to export", run.Status))
	}

	var payload dto.GeneratedSchedule
	if err := json.Unmarshal(run.Schedule, &payload); err != nil {
		return nil, fmt.Errorf("decode run schedule: %w", err)
	}

	subjectNames, teacherNames, err := s.loadNames(ctx, payload)
	if err != nil {
		return nil, err
	}
	days := workingDaysOf(payload)

	switch format {
	case "csv":
		content, err := s.renderCSV(payload, days, subjectNames, teacherNames)
		if err != nil {
			return nil, err
		}
		return &ExportPayload{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-%s.csv", run.ID),
		}, nil
	case "pdf":
		content, err := s.renderPDF(payload, days, subjectNames, teacherNames)
		if err != nil {
			return nil, err
		}
		return &ExportPayload{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-%s.pdf", run.ID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) loadNames(ctx context.Context, payload dto.GeneratedSchedule) (map[string]string, map[string]string, error) {
	subjectSet := make(map[string]bool)
	teacherSet := make(map[string]bool)
	for _, section := range payload.Sections {
		for _, slots := range section.Days {
			for _, slot := range slots {
				subjectSet[slot.SubjectID] = true
				if slot.TeacherID != nil {
					teacherSet[*slot.TeacherID] = true
				}
			}
		}
	}

	subjects, err := s.lookups.ListSubjects(ctx, keysOf(subjectSet))
	if err != nil {
		return nil, nil, fmt.Errorf("load subject names: %w", err)
	}
	teachers, err := s.lookups.ListTeachers(ctx, keysOf(teacherSet))
	if err != nil {
		return nil, nil, fmt.Errorf("load teacher names: %w", err)
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		subjectNames[subject.ID] = subject.Name
	}
	teacherNames := make(map[string]string, len(teachers))
	for _, teacher := range teachers {
		teacherNames[teacher.ID] = teacher.Name
	}
	return subjectNames, teacherNames, nil
}

func (s *ExportService) renderCSV(payload dto.GeneratedSchedule, days []string, subjectNames, teacherNames map[string]string) ([]byte, error) {
	headers := append([]string{"Section", "Slot"}, days...)
	data := export.Dataset{Headers: headers}

	for _, sectionID := range sortedSectionIDs(payload) {
		section := payload.Sections[sectionID]
		label := sectionLabel(section)
		for slot := 0; slot <= maxSlotIndex(section); slot++ {
			row := map[string]string{"Section": label, "Slot": strconv.Itoa(slot + 1)}
			for _, day := range days {
				row[day] = cellText(section.Days[day], slot, subjectNames, teacherNames)
			}
			data.Rows = append(data.Rows, row)
		}
	}
	return s.csv.Render(data)
}

func (s *ExportService) renderPDF(payload dto.GeneratedSchedule, days []string, subjectNames, teacherNames map[string]string) ([]byte, error) {
	var sections []export.TitledDataset
	headers := append([]string{"Slot"}, days...)

	for _, sectionID := range sortedSectionIDs(payload) {
		section := payload.Sections[sectionID]
		data := export.Dataset{Headers: headers}
		for slot := 0; slot <= maxSlotIndex(section); slot++ {
			row := map[string]string{"Slot": strconv.Itoa(slot + 1)}
			for _, day := range days {
				row[day] = cellText(section.Days[day], slot, subjectNames, teacherNames)
			}
			data.Rows = append(data.Rows, row)
		}
		sections = append(sections, export.TitledDataset{Title: sectionLabel(section), Data: data})
	}
	return s.pdf.Render(s.cfg.Title, sections)
}

func cellText(slots []dto.GeneratedSlot, slotIndex int, subjectNames, teacherNames map[string]string) string {
	for _, slot := range slots {
		if slot.SlotIndex != slotIndex {
			continue
		}
		subject := subjectNames[slot.SubjectID]
		if subject == "" {
			subject = slot.SubjectID
		}
		if slot.TeacherID == nil {
			return subject
		}
		teacher := teacherNames[*slot.TeacherID]
		if teacher == "" {
			teacher = *slot.TeacherID
		}
		return fmt.Sprintf("%s (%s)", subject, teacher)
	}
	return ""
}

func sectionLabel(section dto.GeneratedSection) string {
	return fmt.Sprintf("%s %s", section.ClassName, section.SectionName)
}

func sortedSectionIDs(payload dto.GeneratedSchedule) []string {
	ids := make([]string, 0, len(payload.Sections))
	for id := range payload.Sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func maxSlotIndex(section dto.GeneratedSection) int {
	max := -1
	for _, slots := range section.Days {
		for _, slot := range slots {
			if slot.SlotIndex > max {
				max = slot.SlotIndex
			}
		}
	}
	return max
}

func keysOf(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
