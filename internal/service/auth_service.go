package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sstli/attendance-gateway/internal/models"
	appErrors "github.com/sstli/attendance-gateway/pkg/errors"
)

type userFetcher interface {
	Users(ctx context.Context) ([]models.UpstreamUser, error)
}

type sessionStore interface {
	Save(ctx context.Context, session *models.Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthConfig defines configuration for the session wrapper.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthService authenticates staff against the externally hosted user list and
// manages the resulting server-side session. There is no upstream login
// endpoint: the whole list is fetched and credentials are matched locally,
// preserving the original client's contract.
type AuthService struct {
	fetcher   userFetcher
	sessions  sessionStore
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(fetcher userFetcher, sessions sessionStore, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 12 * time.Hour
	}
	return &AuthService{fetcher: fetcher, sessions: sessions, validator: validate, logger: logger, config: config}
}

// Login matches the credentials against the upstream user list, stores a
// session projection of the matched record, and issues a JWT referencing it.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	users, err := s.fetcher.Users(ctx)
	if err != nil {
		return nil, err
	}

	var matched *models.UpstreamUser
	for i := range users {
		if users[i].UserName == req.UserName && users[i].Password == req.Password {
			matched = &users[i]
			break
		}
	}
	if matched == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	session := &models.Session{
		ID:            uuid.NewString(),
		UserGUID:      matched.GUID,
		UserName:      matched.UserName,
		FullName:      matched.FullName,
		BranchGUID:    matched.BranchGUID,
		BranchForWork: matched.BranchForWork,
		IsTrainer:     matched.ChkTrainer,
		TrainerGUID:   matched.TrainerGUID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.sessions.Save(ctx, session, s.config.Expiration); err != nil {
		return nil, err
	}

	token, err := s.generateToken(session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	s.logger.Info("staff logged in",
		zap.String("user", session.UserName),
		zap.String("branch", session.BranchForWork))

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.config.Expiration.Seconds()),
		IssuedAt:  time.Now().UTC(),
		Session:   *session,
	}, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(token string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
	}
	return claims, nil
}

// Session resolves the server-side session referenced by validated claims.
func (s *AuthService) Session(ctx context.Context, claims *models.SessionClaims) (*models.Session, error) {
	if claims == nil || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing session")
	}
	return s.sessions.Get(ctx, claims.SessionID)
}

// Logout clears the server-side session.
func (s *AuthService) Logout(ctx context.Context, claims *models.SessionClaims) error {
	if claims == nil || claims.SessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}

func (s *AuthService) generateToken(session *models.Session) (string, error) {
	now := time.Now().UTC()
	claims := models.SessionClaims{
		SessionID: session.ID,
		UserGUID:  session.UserGUID,
		FullName:  session.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.UserName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
