package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type mockUserFetcher struct {
	users []models.UpstreamUser
	err   error
}

func (m *mockUserFetcher) Users(_ context.Context) ([]models.UpstreamUser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users, nil
}

type memorySessionStore struct {
	sessions map[string]*models.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*models.Session)}
}

func (s *memorySessionStore) Save(_ context.Context, session *models.Session, _ time.Duration) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired")
	}
	return session, nil
}

func (s *memorySessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func testAuthService(users []models.UpstreamUser) (*AuthService, *memorySessionStore) {
	store := newMemorySessionStore()
	svc := NewAuthService(&mockUserFetcher{users: users}, store, nil, nil, AuthConfig{
		Secret:     "test_secret",
		Expiration: time.Hour,
	})
	return svc, store
}

func staffUser() models.UpstreamUser {
	return models.UpstreamUser{
		GUID:          "user-guid-1",
		UserName:      "amal",
		Password:      "secret123",
		FullName:      "Amal Said",
		BranchGUID:    "branch-guid-1",
		BranchForWork: "Main Branch",
		ChkTrainer:    true,
		TrainerGUID:   "trainer-guid-1",
	}
}

func TestLoginMatchesCredentialsAgainstUserList(t *testing.T) {
	svc, store := testAuthService([]models.UpstreamUser{staffUser()})

	res, err := svc.Login(context.Background(), models.LoginRequest{UserName: "amal", Password: "secret123"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Amal Said", res.Session.FullName)
	assert.Equal(t, "Main Branch", res.Session.BranchForWork)
	assert.True(t, res.Session.IsTrainer)
	assert.Contains(t, store.sessions, res.Session.ID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := testAuthService([]models.UpstreamUser{staffUser()})

	_, err := svc.Login(context.Background(), models.LoginRequest{UserName: "amal", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc, _ := testAuthService([]models.UpstreamUser{staffUser()})

	_, err := svc.Login(context.Background(), models.LoginRequest{UserName: "nobody", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestLoginValidatesPayload(t *testing.T) {
	svc, _ := testAuthService([]models.UpstreamUser{staffUser()})

	_, err := svc.Login(context.Background(), models.LoginRequest{UserName: "", Password: ""})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestTokenRoundTripResolvesSession(t *testing.T) {
	svc, _ := testAuthService([]models.UpstreamUser{staffUser()})

	res, err := svc.Login(context.Background(), models.LoginRequest{UserName: "amal", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, claims.SessionID)
	assert.Equal(t, "user-guid-1", claims.UserGUID)

	session, err := svc.Session(context.Background(), claims)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, session.ID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := testAuthService(nil)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestLogoutRemovesSession(t *testing.T) {
	svc, store := testAuthService([]models.UpstreamUser{staffUser()})

	res, err := svc.Login(context.Background(), models.LoginRequest{UserName: "amal", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), claims))
	assert.NotContains(t, store.sessions, res.Session.ID)

	_, err = svc.Session(context.Background(), claims)
	assert.Error(t, err)
}
