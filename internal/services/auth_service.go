package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
	"github.com/travelease/ticketing-backend/internal/utils"
	"github.com/travelease/ticketing-backend/pkg/jwt"
)

// ClientInfo describes where a login came from
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// AuthService handles admin authentication business logic
type AuthService struct {
	store      database.Store
	jwtService *jwt.Service
	logger     *logrus.Logger
	now        func() time.Time
}

// NewAuthService creates a new admin auth service
func NewAuthService(store database.Store, jwtService *jwt.Service, logger *logrus.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtService: jwtService,
		logger:     logger,
		now:        time.Now,
	}
}

// Login checks credentials, records a session and returns its bearer token
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, client ClientInfo) (*models.LoginResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("INVALID_CREDENTIALS", "invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("INVALID_CREDENTIALS", "invalid email or password")
	}

	if !user.IsActive {
		return nil, apperr.Unauthorized("ACCOUNT_INACTIVE", "account is inactive")
	}

	token, expiresAt, err := s.jwtService.GenerateSessionToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("failed to issue session", err)
	}

	device := utils.ParseUserAgent(client.UserAgent)
	session := &models.Session{
		Token:      token,
		UserID:     user.ID,
		ExpiresAt:  expiresAt,
		IPAddress:  optional(client.IPAddress),
		DeviceType: optional(device.DeviceType),
		Browser:    optional(device.Browser),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	// Log error but don't fail the login
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"ip":          client.IPAddress,
		"device_type": device.DeviceType,
	}).Info("Admin login")

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Logout ends the session behind token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to its active user. The token must verify
// and its session row must still exist and be unexpired.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateSessionToken(token)
	if err != nil {
		if jwt.IsExpiredError(err) {
			return nil, apperr.Unauthorized("TOKEN_EXPIRED", "session token has expired")
		}
		return nil, apperr.Unauthorized("INVALID_TOKEN", "invalid session token")
	}

	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("SESSION_NOT_FOUND", "session has ended")
		}
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, apperr.Unauthorized("INVALID_TOKEN", "invalid session token")
	}
	if session.IsExpired(s.now()) {
		return nil, apperr.Unauthorized("SESSION_EXPIRED", "session has expired")
	}

	user, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Unauthorized("SESSION_NOT_FOUND", "session has ended")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("ACCOUNT_INACTIVE", "account is inactive")
	}

	return user, nil
}

// Me returns the user behind a verified session
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// PurgeExpiredSessions deletes session rows past their expiry
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Purged expired admin sessions")
	}
	return removed, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
