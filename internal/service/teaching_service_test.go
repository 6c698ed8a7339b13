package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type mockTeachingFetcher struct {
	users     []models.UpstreamUser
	teaching  []models.TrainerTeaching
	submitted []models.TeachingSubmission
	err       error
}

func (m *mockTeachingFetcher) Users(_ context.Context) ([]models.UpstreamUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

func (m *mockTeachingFetcher) TeachingData(_ context.Context) ([]models.TrainerTeaching, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.teaching, nil
}

func (m *mockTeachingFetcher) AddTeachingData(_ context.Context, submission models.TeachingSubmission) error {
	if m.err != nil {
		return m.err
	}
	m.submitted = append(m.submitted, submission)
	return nil
}

func TestTrainersFiltersByBranchAndFlag(t *testing.T) {
	fetcher := &mockTeachingFetcher{users: []models.UpstreamUser{
		{GUID: "t1", FullName: "Trainer One", ChkTrainer: true, BranchForWork: "Main Branch"},
		{GUID: "t2", FullName: "Trainer Two", ChkTrainer: true, BranchForWork: "Other Branch"},
		{GUID: "u1", FullName: "Clerk", ChkTrainer: false, BranchForWork: "Main Branch"},
	}}
	svc := NewTeachingService(fetcher, nil, nil)
	session := &models.Session{ID: "s1", BranchForWork: "Main Branch"}

	trainers, err := svc.Trainers(context.Background(), session)
	require.NoError(t, err)

	require.Len(t, trainers, 1)
	assert.Equal(t, "t1", trainers[0].GUID)
}

func TestTrainersRequiresBranchOnSession(t *testing.T) {
	svc := NewTeachingService(&mockTeachingFetcher{}, nil, nil)

	_, err := svc.Trainers(context.Background(), &models.Session{ID: "s1"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestTeachingSubmitMintsIdentifiers(t *testing.T) {
	fetcher := &mockTeachingFetcher{}
	svc := NewTeachingService(fetcher, nil, nil)
	session := &models.Session{ID: "s1", UserGUID: "staff-1"}

	first, err := svc.Submit(context.Background(), TeachingFormRequest{
		TrainerName: "Trainer One",
		StudyLevel:  "First",
		DiplomaName: "IT",
		SubjectName: "Databases",
	}, session)
	require.NoError(t, err)

	second, err := svc.Submit(context.Background(), TeachingFormRequest{
		TrainerName: "Trainer One",
		StudyLevel:  "First",
		DiplomaName: "IT",
		SubjectName: "Databases",
	}, session)
	require.NoError(t, err)

	assert.Equal(t, "staff-1", first.TrainerGeoID)
	assert.NotEmpty(t, first.DiplomaID)
	assert.NotEmpty(t, first.SubjectID)
	assert.NotEqual(t, first.DiplomaID, second.DiplomaID)
	assert.NotEqual(t, first.SubjectID, second.SubjectID)
	assert.Len(t, fetcher.submitted, 2)
}

func TestTeachingSubmitValidatesRequiredFields(t *testing.T) {
	svc := NewTeachingService(&mockTeachingFetcher{}, nil, nil)
	session := &models.Session{ID: "s1", UserGUID: "staff-1"}

	_, err := svc.Submit(context.Background(), TeachingFormRequest{TrainerName: "Trainer One"}, session)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTeachingStats(t *testing.T) {
	trainers := []models.TrainerTeaching{
		{
			TrainerGUID: "t1",
			Diplomas: []models.TeachingDiploma{
				{DiplomaName: "IT", Subjects: []models.TeachingSubject{{SubjectName: "Databases"}, {SubjectName: "Networks"}}},
				{DiplomaName: "Accounting", Subjects: []models.TeachingSubject{{SubjectName: "Bookkeeping"}}},
			},
		},
		{
			TrainerGUID: "t2",
			Diplomas: []models.TeachingDiploma{
				{DiplomaName: "IT", Subjects: []models.TeachingSubject{{SubjectName: "Programming"}}},
			},
		},
	}

	stats := TeachingStatsFor(trainers)

	assert.Equal(t, 2, stats.TotalTrainers)
	assert.Equal(t, 3, stats.TotalDiplomas)
	assert.Equal(t, 4, stats.TotalSubjects)
	assert.Equal(t, []string{"IT", "Accounting"}, stats.UniqueDiplomas)
}

func TestTeachingReport(t *testing.T) {
	fetcher := &mockTeachingFetcher{teaching: []models.TrainerTeaching{
		{TrainerGUID: "t1", Diplomas: []models.TeachingDiploma{{DiplomaName: "IT"}}},
	}}
	svc := NewTeachingService(fetcher, nil, nil)

	report, err := svc.Report(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Trainers, 1)
	assert.Equal(t, 1, report.Stats.TotalTrainers)
}
