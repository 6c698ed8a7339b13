package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type teachingFetcher interface {
	Users(ctx context.Context) ([]models.UpstreamUser, error)
	TeachingData(ctx context.Context) ([]models.TrainerTeaching, error)
	AddTeachingData(ctx context.Context, submission models.TeachingSubmission) error
}

// TeachingFormRequest is the teaching-data form payload.
type TeachingFormRequest struct {
	TrainerName string `json:"trainer_name" validate:"required"`
	TrainerGUID string `json:"trainer_guid"`
	StudyLevel  string `json:"study_level" validate:"required"`
	DiplomaName string `json:"diploma_name" validate:"required"`
	SubjectName string `json:"subject_name" validate:"required"`
}

// TeachingReport is the course report: the raw teaching tree plus summary
// statistics.
type TeachingReport struct {
	Trainers []models.TrainerTeaching `json:"trainers"`
	Stats    models.TeachingStats     `json:"stats"`
}

// TeachingService drives the teaching-data form and the course report.
type TeachingService struct {
	fetcher   teachingFetcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeachingService constructs the teaching service.
func NewTeachingService(fetcher teachingFetcher, validate *validator.Validate, logger *zap.Logger) *TeachingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeachingService{fetcher: fetcher, validator: validate, logger: logger}
}

// Trainers lists selectable trainers for the session branch, derived from the
// upstream user list.
func (s *TeachingService) Trainers(ctx context.Context, session *models.Session) ([]models.Trainer, error) {
	if session == nil || session.BranchForWork == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "branch information not found on session")
	}
	users, err := s.fetcher.Users(ctx)
	if err != nil {
		return nil, err
	}
	trainers := make([]models.Trainer, 0)
	for _, user := range users {
		if user.ChkTrainer && user.BranchForWork == session.BranchForWork {
			trainers = append(trainers, models.Trainer{GUID: user.GUID, FullName: user.FullName})
		}
	}
	return trainers, nil
}

// Submit stores one teaching-data entry. Diploma and subject identifiers are
// minted per submission, matching the upstream write contract.
func (s *TeachingService) Submit(ctx context.Context, req TeachingFormRequest, session *models.Session) (*models.TeachingSubmission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required teaching field")
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}

	submission := models.TeachingSubmission{
		TrainerGeoID: session.UserGUID,
		TrainerName:  req.TrainerName,
		TrainerGUID:  req.TrainerGUID,
		StudyLevel:   req.StudyLevel,
		DiplomaID:    uuid.NewString(),
		DiplomaName:  req.DiplomaName,
		SubjectID:    uuid.NewString(),
		SubjectName:  req.SubjectName,
	}

	if err := s.fetcher.AddTeachingData(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("teaching data recorded",
		zap.String("trainer", submission.TrainerName),
		zap.String("diploma", submission.DiplomaName),
		zap.String("subject", submission.SubjectName))

	return &submission, nil
}

// Report fetches the teaching tree and derives the course statistics.
func (s *TeachingService) Report(ctx context.Context) (*TeachingReport, error) {
	trainers, err := s.fetcher.TeachingData(ctx)
	if err != nil {
		return nil, err
	}
	return &TeachingReport{Trainers: trainers, Stats: TeachingStatsFor(trainers)}, nil
}

// TeachingStatsFor summarises a teaching tree: trainer count, diploma and
// subject totals, and the distinct diploma names in first-seen order.
func TeachingStatsFor(trainers []models.TrainerTeaching) models.TeachingStats {
	stats := models.TeachingStats{UniqueDiplomas: []string{}}
	seen := make(map[string]struct{})
	stats.TotalTrainers = len(trainers)
	for _, trainer := range trainers {
		stats.TotalDiplomas += len(trainer.Diplomas)
		for _, diploma := range trainer.Diplomas {
			stats.TotalSubjects += len(diploma.Subjects)
			if _, ok := seen[diploma.DiplomaName]; !ok {
				seen[diploma.DiplomaName] = struct{}{}
				stats.UniqueDiplomas = append(stats.UniqueDiplomas, diploma.DiplomaName)
			}
		}
	}
	return stats
}
