package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/models"
	"github.com/ecodepin/ecodepin-api/utils"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

// AuthenticatedUser is the identity resolved for a request.
type AuthenticatedUser struct {
	User  *models.User
	Token string
}

type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	db         *gorm.DB
	identity   utils.IdentityProviderInterface
	sessionTTL time.Duration
	log        *zap.Logger
	now        func() time.Time
}

func NewAuthService(db *gorm.DB, identity utils.IdentityProviderInterface, sessionTTL time.Duration, log *zap.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		db:         db,
		identity:   identity,
		sessionTTL: sessionTTL,
		log:        log,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// CreateSession exchanges an identity-provider session id for a local user
// and a fresh session token.
func (s *AuthService) CreateSession(ctx context.Context, externalSessionID string) (*LoginResult, error) {
	externalSessionID = strings.TrimSpace(externalSessionID)
	if externalSessionID == "" {
		return nil, apperrors.InvalidInput("session_id required")
	}

	profile, err := s.identity.FetchSessionData(ctx, externalSessionID)
	if err != nil {
		s.log.Warn("identity provider rejected session", zap.Error(err))
		return nil, err
	}
	if profile == nil || strings.TrimSpace(profile.Email) == "" {
		return nil, apperrors.Unauthorized("Invalid session_id")
	}

	user, err := s.upsertUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := models.Session{
		Token:     models.NewSessionToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, apperrors.FromStorage(err, "Session not found")
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID), zap.String("email", user.Email))

	return &LoginResult{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *AuthService) upsertUser(ctx context.Context, profile *utils.IdentityProfile) (*models.User, error) {
	db := s.db.WithContext(ctx)
	email := models.NormalizeEmail(profile.Email)
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	for attempt := 0; attempt < 2; attempt++ {
		var user models.User
		err := db.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			user.Name = name
			if profile.Picture != "" {
				picture := profile.Picture
				user.Picture = &picture
			}
			if err := db.Save(&user).Error; err != nil {
				return nil, apperrors.FromStorage(err, "User not found")
			}
			return &user, nil

		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Email: email, Name: name}
			if profile.Picture != "" {
				picture := profile.Picture
				user.Picture = &picture
			}
			err := db.Create(&user).Error
			if err == nil {
				return &user, nil
			}
			// A concurrent login created the same email; read it back.
			if _, dup := apperrors.UniqueViolation(err); dup {
				continue
			}
			return nil, apperrors.FromStorage(err, "User not found")

		default:
			return nil, apperrors.FromStorage(err, "User not found")
		}
	}
	return nil, apperrors.Internal("Authentication failed", errors.New("user upsert did not converge"))
}

// Authenticate resolves a bearer token. Expired sessions are deleted on sight.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*AuthenticatedUser, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	db := s.db.WithContext(ctx)

	var session models.Session
	if err := db.Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("Invalid session")
		}
		return nil, apperrors.FromStorage(err, "Invalid session")
	}

	if !session.Valid(s.now()) {
		if err := db.Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
			s.log.Warn("failed to delete expired session", zap.String("user_id", session.UserID), zap.Error(err))
		}
		return nil, apperrors.Unauthorized("Session expired")
	}

	var user models.User
	if err := db.Where("id = ?", session.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("User not found")
		}
		return nil, apperrors.FromStorage(err, "User not found")
	}

	return &AuthenticatedUser{User: &user, Token: token}, nil
}

// Logout deletes the session for token. It succeeds when none exists.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error; err != nil {
		return apperrors.FromStorage(err, "Session not found")
	}
	return nil
}

// PurgeExpiredSessions removes every session past its expiry and reports how many.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&models.Session{})
	if res.Error != nil {
		return 0, apperrors.FromStorage(res.Error, "Session not found")
	}
	return res.RowsAffected, nil
}
