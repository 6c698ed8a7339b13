package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
	"github.com/sstli/attendance-gateway/pkg/export"
	"github.com/sstli/attendance-gateway/pkg/jobs"
	"github.com/sstli/attendance-gateway/pkg/storage"
)

type viewLoader interface {
	LoadDaily(ctx context.Context, scope string, req DailyReportRequest) (*models.DailyAttendanceView, error)
	LoadMonthly(ctx context.Context, scope string, req MonthlyReportRequest) (*models.MonthlyAttendanceView, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset, title, generated string) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, generated string) ([]byte, error)
}

type exportObserver interface {
	ObserveExport(reportType, outcome string)
}

// ExportRequest describes one export invocation from the report views.
type ExportRequest struct {
	Type   models.ReportType   `json:"type"`
	Format models.ReportFormat `json:"format"`
	Date   string              `json:"date"`
	Month  string              `json:"month"`
	Search string              `json:"search"`
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
}

// ReportDownload is a resolved artifact handle.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ExportService queues report exports, renders them off the request path and
// serves the artifacts through signed download links. Jobs live in memory
// only; an export is transient output, not owned data.
type ExportService struct {
	loader  viewLoader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	queue   *jobs.Queue
	metrics exportObserver

	mu      sync.Mutex
	reports map[string]*models.ReportJob
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(loader viewLoader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, queueCfg jobs.QueueConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ExportService{
		loader:  loader,
		storage: store,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		reports: make(map[string]*models.ReportJob),
		now:     time.Now,
	}
	queueCfg.Logger = logger
	svc.queue = jobs.NewQueue("exports", svc.handleJob, queueCfg)
	return svc
}

// WithMetrics attaches an export outcome observer.
func (s *ExportService) WithMetrics(observer exportObserver) *ExportService {
	s.metrics = observer
	return s
}

// Start begins background rendering.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// QueueDepth reports export jobs waiting for a worker.
func (s *ExportService) QueueDepth() int {
	return s.queue.Depth()
}

// CreateJob validates the request, registers a queued report and hands it to
// the worker pool.
func (s *ExportService) CreateJob(ctx context.Context, req ExportRequest, session *models.Session) (*models.ReportJob, error) {
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	switch req.Type {
	case models.ReportTypeDaily:
		if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
		}
	case models.ReportTypeMonthly:
		if _, err := MonthDays(req.Month); err != nil {
			return nil, err
		}
		if session.BranchForWork == "" {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch information not found on session")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be daily or monthly")
	}

	now := s.now().UTC()
	report := &models.ReportJob{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Format:    req.Format,
		Date:      req.Date,
		Month:     req.Month,
		Branch:    session.BranchForWork,
		CreatedBy: session.UserGUID,
		Status:    models.ReportStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.reports[report.ID] = report
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: report.ID, Type: string(report.Type), Payload: req}); err != nil {
		s.setStatus(report.ID, models.ReportStatusFailed, err.Error())
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue export")
	}
	return s.snapshot(report.ID), nil
}

// Job returns the current state of a report job.
func (s *ExportService) Job(id string) (*models.ReportJob, error) {
	report := s.snapshot(id)
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return report, nil
}

// ResolveDownload validates a signed token and opens the stored artifact.
func (s *ExportService) ResolveDownload(token string) (*ReportDownload, error) {
	reportID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	report := s.snapshot(reportID)
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file missing")
	}
	return &ReportDownload{
		File:      file,
		Filename:  relPath,
		Format:    report.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Cleanup removes artifacts older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export cleanup", zap.Int("deleted", len(deleted)))
	}
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(ExportRequest)
	if !ok {
		s.setStatus(job.ID, models.ReportStatusFailed, "bad job payload")
		return nil
	}
	report := s.snapshot(job.ID)
	if report == nil {
		return nil
	}
	s.setStatus(job.ID, models.ReportStatusRunning, "")

	dataset, title, err := s.buildDataset(ctx, report, req)
	if err != nil {
		s.setStatus(job.ID, models.ReportStatusFailed, err.Error())
		s.observe(report.Type, "failed")
		return err
	}

	// The artifact mirrors the right-to-left authored documents of the
	// legacy client: column order is the reverse of the on-screen table.
	dataset = dataset.Reversed()
	generated := "Generated " + s.now().UTC().Format("2006-01-02 15:04")

	var payload []byte
	switch report.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset, title, generated)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title, generated)
	default:
		err = fmt.Errorf("unsupported format %s", report.Format)
	}
	if err != nil {
		s.setStatus(job.ID, models.ReportStatusFailed, err.Error())
		s.observe(report.Type, "failed")
		return err
	}

	filename := s.buildFilename(report)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.setStatus(job.ID, models.ReportStatusFailed, err.Error())
		s.observe(report.Type, "failed")
		return err
	}

	token, expiresAt, err := s.signer.Generate(report.ID, relPath)
	if err != nil {
		s.setStatus(job.ID, models.ReportStatusFailed, err.Error())
		s.observe(report.Type, "failed")
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.mu.Lock()
	if stored, ok := s.reports[report.ID]; ok {
		stored.Status = models.ReportStatusFinished
		stored.Error = ""
		stored.Token = token
		stored.URL = fmt.Sprintf("%s/exports/%s", prefix, token)
		stored.ExpiresAt = expiresAt
		stored.UpdatedAt = s.now().UTC()
	}
	s.mu.Unlock()
	s.observe(report.Type, "finished")
	return nil
}

func (s *ExportService) observe(reportType models.ReportType, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveExport(string(reportType), outcome)
	}
}

func (s *ExportService) buildDataset(ctx context.Context, report *models.ReportJob, req ExportRequest) (export.Dataset, string, error) {
	scope := "export|" + report.ID
	switch report.Type {
	case models.ReportTypeDaily:
		view, err := s.loader.LoadDaily(ctx, scope, DailyReportRequest{Date: req.Date, Search: req.Search, Branch: report.Branch})
		if err != nil {
			return export.Dataset{}, "", err
		}
		return BuildDailyDataset(*view), "Daily Attendance Report " + report.Date, nil
	case models.ReportTypeMonthly:
		view, err := s.loader.LoadMonthly(ctx, scope, MonthlyReportRequest{Month: req.Month, Branch: report.Branch})
		if err != nil {
			return export.Dataset{}, "", err
		}
		return BuildMonthlyDataset(*view), "Monthly Attendance Report " + report.Month, nil
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", report.Type)
	}
}

func (s *ExportService) buildFilename(report *models.ReportJob) string {
	stamp := report.Date
	if report.Type == models.ReportTypeMonthly {
		stamp = report.Month
	}
	return fmt.Sprintf("%s_attendance_%s_%s.%s", report.Type, stamp, report.ID[:8], report.Format)
}

func (s *ExportService) snapshot(id string) *models.ReportJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return nil
	}
	clone := *report
	return &clone
}

func (s *ExportService) setStatus(id string, status models.ReportStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.reports[id]; ok {
		report.Status = status
		report.Error = errMsg
		report.UpdatedAt = s.now().UTC()
	}
}

// BuildDailyDataset lays out the on-screen daily table: student identity
// columns first, then one column per course in first-seen order. Listed
// students are present for the courses they attended and absent otherwise.
func BuildDailyDataset(view models.DailyAttendanceView) export.Dataset {
	headers := append([]string{"Name", "National ID", "Level", "Diploma"}, view.Courses...)
	rows := make([]map[string]string, 0, len(view.Students))
	for _, student := range view.Students {
		row := map[string]string{
			"Name":        student.Name,
			"National ID": student.NationalID,
			"Level":       student.LevelID,
			"Diploma":     student.DiplomaID,
		}
		attended := make(map[string]struct{}, len(student.Courses))
		for _, course := range student.Courses {
			attended[course.Course] = struct{}{}
		}
		for _, course := range view.Courses {
			if _, ok := attended[course]; ok {
				row[course] = "present"
			} else {
				row[course] = "absent"
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// BuildMonthlyDataset lays out the on-screen monthly table: identity and
// percentage columns first, then one column per calendar day.
func BuildMonthlyDataset(view models.MonthlyAttendanceView) export.Dataset {
	headers := []string{"Name", "National ID", "Diploma", "Level", "Attendance %"}
	dayHeaders := make([]string, len(view.Days))
	for i, day := range view.Days {
		dayHeaders[i] = day[len(day)-2:]
	}
	headers = append(headers, dayHeaders...)

	rows := make([]map[string]string, 0, len(view.Students))
	for _, student := range view.Students {
		row := map[string]string{
			"Name":         student.Name,
			"National ID":  student.NationalID,
			"Diploma":      student.DiplomName,
			"Level":        student.LevelName,
			"Attendance %": fmt.Sprintf("%d%%", student.Percentage),
		}
		for i, presence := range student.Presence {
			if presence.Attended {
				row[dayHeaders[i]] = "P"
			} else {
				row[dayHeaders[i]] = "-"
			}
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
