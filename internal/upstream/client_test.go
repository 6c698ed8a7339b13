package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstli/attendance-gateway/internal/models"
	"github.com/sstli/attendance-gateway/pkg/config"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

func testClient(registryURL, studyURL string) *Client {
	return NewClient(config.UpstreamConfig{
		RegistryBaseURL: registryURL,
		StudyBaseURL:    studyURL,
		Timeout:         2 * time.Second,
	}, nil)
}

func TestAttendanceLogParsesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get_attendance.php", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[
			{"national_id":"5123456789","name":"Amira","course":"Math","attendance_date":"2026-03-10","attendance_time":"08:00:00"}
		]}`))
	}))
	defer srv.Close()

	records, err := testClient(srv.URL, srv.URL).AttendanceLog(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Amira", records[0].Name)
}

func TestAttendanceLogRejectsFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"data":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).AttendanceLog(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))
}

func TestAttendanceLogRejectsMalformedRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"name":"Amira","course":"Math"}]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).AttendanceLog(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestAttendanceLogRejectsUnexpectedShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).AttendanceLog(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestStudentByIDNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).StudentByID(context.Background(), "5123456789")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentByIDEmptyBodyTreatedAsMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, srv.URL).StudentByID(context.Background(), "5123456789")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudyInfoByBranchNullBodyIsEmptyRoster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	roster, err := testClient(srv.URL, srv.URL).StudyInfoByBranch(context.Background(), "B1")
	require.NoError(t, err)
	require.NotNil(t, roster, "a branch with no enrollments must still scope reports")
	assert.Empty(t, roster)
}

func TestStudyInfoByBranchRequiresBranch(t *testing.T) {
	_, err := testClient("http://unused", "http://unused").StudyInfoByBranch(context.Background(), "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

type flakyDoer struct {
	failures int
	calls    int
	resp     func() *http.Response
}

func (d *flakyDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	if d.calls <= d.failures {
		return nil, errors.New("connection reset")
	}
	return d.resp(), nil
}

func jsonResponse(body string) func() *http.Response {
	return func() *http.Response {
		rec := httptest.NewRecorder()
		rec.Header().Set("Content-Type", "application/json")
		_, _ = rec.WriteString(body)
		return rec.Result()
	}
}

func TestRetriesOnceOnTransportError(t *testing.T) {
	doer := &flakyDoer{failures: 1, resp: jsonResponse(`{"success":true,"data":[]}`)}
	client := NewClientWithDoer(doer, config.UpstreamConfig{
		RegistryBaseURL: "http://registry",
		StudyBaseURL:    "http://study",
		RetryOnNetwork:  true,
	}, nil)

	records, err := client.AttendanceLog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 2, doer.calls)
}

func TestNoRetryWhenDisabled(t *testing.T) {
	doer := &flakyDoer{failures: 1, resp: jsonResponse(`{"success":true,"data":[]}`)}
	client := NewClientWithDoer(doer, config.UpstreamConfig{
		RegistryBaseURL: "http://registry",
		StudyBaseURL:    "http://study",
		RetryOnNetwork:  false,
	}, nil)

	_, err := client.AttendanceLog(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, 1, doer.calls)
}

type statusDoer struct {
	calls  int
	status int
}

func (d *statusDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls++
	rec := httptest.NewRecorder()
	rec.WriteHeader(d.status)
	return rec.Result(), nil
}

func TestNoRetryOnServerError(t *testing.T) {
	doer := &statusDoer{status: http.StatusInternalServerError}
	client := NewClientWithDoer(doer, config.UpstreamConfig{
		RegistryBaseURL: "http://registry",
		StudyBaseURL:    "http://study",
		RetryOnNetwork:  true,
	}, nil)

	_, err := client.AttendanceLog(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUpstream))
	assert.Equal(t, 1, doer.calls, "non-2xx replies must not be retried")
}

type recordingObserver struct {
	endpoints []string
}

func (r *recordingObserver) ObserveUpstream(endpoint string, _ time.Duration, _ error) {
	r.endpoints = append(r.endpoints, endpoint)
}

func TestMetricsUseLogicalEndpointNames(t *testing.T) {
	observer := &recordingObserver{}
	doer := &flakyDoer{resp: jsonResponse(`{"nationalId":"5123456789","name":"Amira"}`)}
	client := NewClientWithDoer(doer, config.UpstreamConfig{
		RegistryBaseURL: "http://registry",
		StudyBaseURL:    "http://study",
	}, nil).WithMetrics(observer)

	_, err := client.StudentByID(context.Background(), "5123456789")
	require.NoError(t, err)

	require.Equal(t, []string{"student_by_id"}, observer.endpoints)
	for _, endpoint := range observer.endpoints {
		assert.NotContains(t, endpoint, "5123456789", "identifiers must not reach metric labels")
	}
}

func TestSubmitAttendanceSurfacesRejectionMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/save_attendance.php", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"success":false,"message":"duplicate entry"}`))
	}))
	defer srv.Close()

	err := testClient(srv.URL, srv.URL).SubmitAttendance(context.Background(), models.AttendanceRecord{
		NationalID:     "5123456789",
		Course:         "Math",
		AttendanceDate: "2026-03-10",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry")
}
