package service

import (
	"context"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

// nationalIDPattern: exactly ten digits, the first between 1 and 9.
var nationalIDPattern = regexp.MustCompile(`^[1-9][0-9]{9}$`)

type attendanceFetcher interface {
	StudentByID(ctx context.Context, nationalID string) (*models.Student, error)
	SubmitAttendance(ctx context.Context, record models.AttendanceRecord) error
}

// SubmitAttendanceRequest is the capture-dialog payload: the transient form
// state that exists only while the dialog is open.
type SubmitAttendanceRequest struct {
	NationalID string `json:"national_id" validate:"required,national_id"`
	Name       string `json:"name" validate:"required"`
	LevelID    string `json:"level_id" validate:"required"`
	DiplomaID  string `json:"diploma_id" validate:"required"`
	Course     string `json:"course" validate:"required"`
	Confirmed  bool   `json:"confirmed"`
}

// AttendanceService drives the capture flow: student lookup by national ID
// and attendance submission.
type AttendanceService struct {
	fetcher   attendanceFetcher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(fetcher attendanceFetcher, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{fetcher: fetcher, validator: validate, logger: logger, now: time.Now}
	_ = svc.validator.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return nationalIDPattern.MatchString(fl.Field().String())
	})
	return svc
}

// ValidNationalID reports whether the identifier passes the capture-form rule.
func ValidNationalID(id string) bool {
	return nationalIDPattern.MatchString(id)
}

// LookupStudent fetches a student by national ID, validating the identifier
// before touching the network.
func (s *AttendanceService) LookupStudent(ctx context.Context, nationalID string) (*models.Student, error) {
	if !ValidNationalID(nationalID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "national ID must be 10 digits and must not start with 0")
	}
	student, err := s.fetcher.StudentByID(ctx, nationalID)
	if err != nil {
		return nil, err
	}
	return student, nil
}

// Submit records one attendance confirmation. The event is stamped with the
// current date and time and the submitting staff member's guid. The upstream
// enforces no uniqueness, so re-submitting the same (student, course, day) is
// accepted here and collapsed at aggregation time.
func (s *AttendanceService) Submit(ctx context.Context, req SubmitAttendanceRequest, session *models.Session) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if !req.Confirmed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance must be confirmed before submission")
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}

	now := s.now().UTC()
	record := models.AttendanceRecord{
		NationalID:     req.NationalID,
		Name:           req.Name,
		Course:         req.Course,
		LevelID:        req.LevelID,
		DiplomaID:      req.DiplomaID,
		AttendanceDate: now.Format(models.DateLayout),
		AttendanceTime: now.Format(models.TimeLayout),
		CreatedBy:      session.UserGUID,
	}

	if err := s.fetcher.SubmitAttendance(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("attendance recorded",
		zap.String("national_id", record.NationalID),
		zap.String("course", record.Course),
		zap.String("date", record.AttendanceDate))

	return &record, nil
}
