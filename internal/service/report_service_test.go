package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type mockReportFetcher struct {
	records     []models.AttendanceRecord
	recordsErr  error
	roster      map[string][]models.StudyInfo
	rosterErr   error
	rosterCalls int
	onFetch     func()
}

func (m *mockReportFetcher) AttendanceLog(_ context.Context) ([]models.AttendanceRecord, error) {
	if m.onFetch != nil {
		m.onFetch()
	}
	if m.recordsErr != nil {
		return nil, m.recordsErr
	}
	return m.records, nil
}

func (m *mockReportFetcher) StudyInfoByBranch(_ context.Context, branchID string) ([]models.StudyInfo, error) {
	m.rosterCalls++
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	return m.roster[branchID], nil
}

func TestLoadDailyUnscoped(t *testing.T) {
	fetcher := &mockReportFetcher{records: []models.AttendanceRecord{
		record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
		record("6123456789", "Basel", "Math", "2026-03-11", "08:00:00"),
	}}
	svc := NewReportService(fetcher, nil, nil)

	view, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "2026-03-10"})
	require.NoError(t, err)

	require.Len(t, view.Students, 1)
	assert.Equal(t, "Amira", view.Students[0].Name)
	assert.Zero(t, fetcher.rosterCalls, "unscoped daily view must not fetch a roster")
}

func TestLoadDailyValidatesDate(t *testing.T) {
	svc := NewReportService(&mockReportFetcher{}, nil, nil)

	_, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "10/03/2026"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLoadDailyBranchScoped(t *testing.T) {
	fetcher := &mockReportFetcher{
		records: []models.AttendanceRecord{
			record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
			record("6123456789", "Basel", "Math", "2026-03-10", "08:05:00"),
		},
		roster: map[string][]models.StudyInfo{
			"Main Branch": {{NationalID: "5123456789", StudentName: "Amira"}},
		},
	}
	svc := NewReportService(fetcher, nil, nil)

	view, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "2026-03-10", Branch: "Main Branch"})
	require.NoError(t, err)

	require.Len(t, view.Students, 1)
	assert.Equal(t, "5123456789", view.Students[0].NationalID)
	assert.Equal(t, 1, fetcher.rosterCalls)
}

func TestLoadDailyScopedEmptyRosterShowsNoStudents(t *testing.T) {
	// the roster fetch can yield nil (branch with no enrollments); scoping
	// must still apply rather than fall back to an unscoped view
	fetcher := &mockReportFetcher{
		records: []models.AttendanceRecord{
			record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
		},
		roster: map[string][]models.StudyInfo{},
	}
	svc := NewReportService(fetcher, nil, nil)

	view, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "2026-03-10", Branch: "Empty Branch"})
	require.NoError(t, err)

	assert.Empty(t, view.Students)
	assert.Empty(t, view.Courses)
	assert.Equal(t, 1, fetcher.rosterCalls)
}

func TestLoadDailyAppliesSearch(t *testing.T) {
	fetcher := &mockReportFetcher{records: []models.AttendanceRecord{
		record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
		record("6123456789", "Basel", "Physics", "2026-03-10", "08:05:00"),
	}}
	svc := NewReportService(fetcher, nil, nil)

	view, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "2026-03-10", Search: "basel"})
	require.NoError(t, err)

	require.Len(t, view.Students, 1)
	assert.Equal(t, "Basel", view.Students[0].Name)
	assert.Equal(t, []string{"Physics"}, view.Courses)
}

func TestLoadDailyDiscardsStaleResult(t *testing.T) {
	fetcher := &mockReportFetcher{records: []models.AttendanceRecord{
		record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
	}}
	svc := NewReportService(fetcher, nil, nil)

	// a newer load for the same scope starts while this fetch is in flight
	fetcher.onFetch = func() {
		svc.guard.Begin(scopeKey("s1", "daily"))
	}

	_, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "2026-03-10"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrStale))
}

func TestLoadDailyStaleScopesAreIndependent(t *testing.T) {
	fetcher := &mockReportFetcher{records: []models.AttendanceRecord{
		record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
	}}
	svc := NewReportService(fetcher, nil, nil)

	// another session's load must not invalidate this one
	fetcher.onFetch = func() {
		svc.guard.Begin(scopeKey("other-session", "daily"))
	}

	_, err := svc.LoadDaily(context.Background(), "s1", DailyReportRequest{Date: "2026-03-10"})
	require.NoError(t, err)
}

func TestLoadMonthlyRequiresMonthAndBranch(t *testing.T) {
	svc := NewReportService(&mockReportFetcher{}, nil, nil)

	_, err := svc.LoadMonthly(context.Background(), "s1", MonthlyReportRequest{Month: "2026-03"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.LoadMonthly(context.Background(), "s1", MonthlyReportRequest{Month: "bad", Branch: "Main Branch"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLoadMonthlyBuildsRosterView(t *testing.T) {
	fetcher := &mockReportFetcher{
		records: []models.AttendanceRecord{
			record("5123456789", "Amira", "Math", "2026-03-10", "08:00:00"),
		},
		roster: map[string][]models.StudyInfo{
			"Main Branch": {
				{NationalID: "5123456789", StudentName: "Amira", DiplomName: "IT", LevelName: "First"},
				{NationalID: "6123456789", StudentName: "Basel", DiplomName: "IT", LevelName: "First"},
			},
		},
	}
	svc := NewReportService(fetcher, nil, nil)

	view, err := svc.LoadMonthly(context.Background(), "s1", MonthlyReportRequest{Month: "2026-03", Branch: "Main Branch"})
	require.NoError(t, err)

	require.Len(t, view.Students, 2)
	assert.Equal(t, 1, view.Students[0].DaysPresent)
	assert.Equal(t, 0, view.Students[1].DaysPresent)
	assert.Len(t, view.Days, 31)
}

func TestWhatsAppLink(t *testing.T) {
	assert.Equal(t, "https://wa.me/966501234567", WhatsAppLink("+966 50 123 4567", ""))
	assert.Equal(t,
		"https://wa.me/966501234567?text=Attendance+alert%3A+please+contact+the+school",
		WhatsAppLink("966-50-123-4567", "Attendance alert: please contact the school"))
}
