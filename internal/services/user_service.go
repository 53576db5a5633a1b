package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/travelease/ticketing-backend/internal/apperr"
	"github.com/travelease/ticketing-backend/internal/database"
	"github.com/travelease/ticketing-backend/internal/models"
)

const minPasswordLength = 8

// UserService manages admin accounts
type UserService struct {
	store      database.Store
	contact    contactValidator
	bcryptCost int
	logger     *logrus.Logger
}

// NewUserService creates a new user service
func NewUserService(store database.Store, bcryptCost int, logger *logrus.Logger) *UserService {
	return &UserService{
		store:      store,
		contact:    newContactValidator(),
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *UserService) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", apperr.Validation("WEAK_PASSWORD", "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// normalizePhone accepts an empty phone, which clears it
func (s *UserService) normalizePhone(phone string) (models.NullString, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return models.NullString{}, nil
	}
	normalized, err := s.contact.validatePhone(phone)
	if err != nil {
		return models.NullString{}, err
	}
	return models.NewNullString(normalized), nil
}

// Create adds an active admin user
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest, actor *uuid.UUID) (*models.User, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, apperr.Validation("MISSING_NAME", "firstName is required")
	}
	email, err := s.contact.validateEmail(req.Email)
	if err != nil {
		return nil, err
	}
	phone, err := s.normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: hash,
		Phone:        phone,
		IsActive:     true,
		CreatedBy:    actor,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"email":      user.Email,
		"created_by": actor,
	}).Info("Admin user created")

	return user, nil
}

// Update applies a partial change. Deactivating a user ends all of their sessions.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, req models.UpdateUserRequest, actor *uuid.UUID) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			return nil, apperr.Validation("MISSING_NAME", "firstName cannot be empty")
		}
		user.FirstName = name
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email, err := s.contact.validateEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if req.Phone != nil {
		phone, err := s.normalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		user.Phone = phone
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	deactivated := false
	if req.IsActive != nil {
		if !*req.IsActive && actor != nil && *actor == id {
			return nil, apperr.Forbidden("CANNOT_DEACTIVATE_SELF", "you cannot deactivate your own account")
		}
		deactivated = user.IsActive && !*req.IsActive
		user.IsActive = *req.IsActive
	}
	user.ModifiedBy = actor

	err = s.store.RunInTx(ctx, func(tx database.Store) error {
		if err := tx.UpdateUser(ctx, user); err != nil {
			return err
		}
		if deactivated || req.Password != nil {
			return tx.DeleteUserSessions(ctx, user.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes a user other than the caller
func (s *UserService) Delete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	if id == actor {
		return apperr.Forbidden("CANNOT_DELETE_SELF", "you cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    id,
		"deleted_by": actor,
	}).Info("Admin user deleted")
	return nil
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// List returns all users
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}
