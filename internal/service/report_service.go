package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type reportFetcher interface {
	AttendanceLog(ctx context.Context) ([]models.AttendanceRecord, error)
	StudyInfoByBranch(ctx context.Context, branchID string) ([]models.StudyInfo, error)
}

// DailyReportRequest selects one calendar day, with an optional search term
// and optional branch scoping.
type DailyReportRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Search string `json:"search"`
	Branch string `json:"branch"`
}

// MonthlyReportRequest selects one calendar month for a branch roster.
type MonthlyReportRequest struct {
	Month  string `json:"month" validate:"required"`
	Branch string `json:"branch" validate:"required"`
}

// ReportService runs the fetch-aggregate pass for the report views. Each pass
// refetches the full attendance log and rebuilds the projection from scratch;
// nothing is cached between passes.
type ReportService struct {
	fetcher   reportFetcher
	guard     *ViewGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(fetcher reportFetcher, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		fetcher:   fetcher,
		guard:     NewViewGuard(),
		validator: validate,
		logger:    logger,
	}
}

// LoadDaily builds the daily view for the requested date. scope identifies
// the caller's view (usually the session ID); when a newer load for the same
// scope starts before this one resolves, the result is discarded with
// ErrStale so an older response can never overwrite a newer one.
func (s *ReportService) LoadDaily(ctx context.Context, scope string, req DailyReportRequest) (*models.DailyAttendanceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date format, expected YYYY-MM-DD")
	}

	gen := s.guard.Begin(scopeKey(scope, "daily"))

	var roster []models.StudyInfo
	if req.Branch != "" {
		fetched, err := s.fetcher.StudyInfoByBranch(ctx, req.Branch)
		if err != nil {
			return nil, err
		}
		// scoping must hold even when the branch has no enrollments: a nil
		// fetch result would otherwise read as "no roster supplied"
		if fetched == nil {
			fetched = []models.StudyInfo{}
		}
		roster = fetched
	}

	records, err := s.fetcher.AttendanceLog(ctx)
	if err != nil {
		return nil, err
	}

	if s.guard.Stale(scopeKey(scope, "daily"), gen) {
		return nil, appErrors.Clone(appErrors.ErrStale, "")
	}

	view := AggregateDaily(records, roster, req.Date)
	view = FilterDailySearch(view, req.Search)
	return &view, nil
}

// LoadMonthly builds the monthly view for the requested month and branch
// roster, with the same latest-wins guarantee as LoadDaily.
func (s *ReportService) LoadMonthly(ctx context.Context, scope string, req MonthlyReportRequest) (*models.MonthlyAttendanceView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month and branch are required")
	}
	if _, err := MonthDays(req.Month); err != nil {
		return nil, err
	}

	gen := s.guard.Begin(scopeKey(scope, "monthly"))

	roster, err := s.fetcher.StudyInfoByBranch(ctx, req.Branch)
	if err != nil {
		return nil, err
	}
	records, err := s.fetcher.AttendanceLog(ctx)
	if err != nil {
		return nil, err
	}

	if s.guard.Stale(scopeKey(scope, "monthly"), gen) {
		return nil, appErrors.Clone(appErrors.ErrStale, "")
	}

	view, err := AggregateMonthly(records, roster, req.Month)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// WhatsAppLink builds a messaging deep-link for a student phone number with a
// prefilled text. The link is handed to the caller as-is; nothing is sent.
func WhatsAppLink(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	link := "https://wa.me/" + digits
	if message != "" {
		link += "?text=" + url.QueryEscape(message)
	}
	return link
}

func scopeKey(scope, view string) string {
	return scope + "|" + view
}
