package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstli/attendance-gateway/internal/models"
	"github.com/sstli/attendance-gateway/internal/service"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type stubUserFetcher struct {
	users []models.UpstreamUser
}

func (s *stubUserFetcher) Users(_ context.Context) ([]models.UpstreamUser, error) {
	return s.users, nil
}

type stubSessionStore struct {
	sessions map[string]*models.Session
}

func (s *stubSessionStore) Save(_ context.Context, session *models.Session, _ time.Duration) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}
	return session, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func sessionRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fetcher := &stubUserFetcher{users: []models.UpstreamUser{{
		GUID:     "user-1",
		UserName: "amal",
		Password: "secret123",
		FullName: "Amal Said",
	}}}
	store := &stubSessionStore{sessions: make(map[string]*models.Session)}
	authSvc := service.NewAuthService(fetcher, store, nil, nil, service.AuthConfig{Secret: "test_secret", Expiration: time.Hour})

	res, err := authSvc.Login(context.Background(), models.LoginRequest{UserName: "amal", Password: "secret123"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Session(authSvc))
	r.GET("/protected", func(c *gin.Context) {
		value, _ := c.Get(ContextSessionKey)
		session := value.(*models.Session)
		c.JSON(http.StatusOK, gin.H{"full_name": session.FullName})
	})
	return r, res.Token
}

func TestSessionMiddlewareAllowsValidToken(t *testing.T) {
	router, token := sessionRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Amal Said")
}

func TestSessionMiddlewareRejectsMissingHeader(t *testing.T) {
	router, _ := sessionRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddlewareRejectsMalformedHeader(t *testing.T) {
	router, token := sessionRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddlewareRejectsForgedToken(t *testing.T) {
	router, _ := sessionRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
