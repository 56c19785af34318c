// internal/services/user_service.go
package services

import (
	"time"

	apperrors "github.com/Reflectix/CounselLab/internal/errors"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/storage"
)

const collectionUsers = "users"

// UserService maintains local user profiles. Identity is asserted by
// the auth token; the profile carries role and display attributes.
type UserService struct {
	store *storage.RecordStore
}

// NewUserService creates a user service over a record store.
func NewUserService(store *storage.RecordStore) *UserService {
	return &UserService{store: store}
}

// GetUser loads a user profile.
func (s *UserService) GetUser(userID string) (*models.User, error) {
	if !s.store.Exists(collectionUsers, userID) {
		return nil, apperrors.NewNotFoundError("user not found: "+userID, nil)
	}

	var user models.User
	if err := s.store.Load(collectionUsers, userID, &user); err != nil {
		return nil, apperrors.NewStorageError("failed to load user", err)
	}
	return &user, nil
}

// EnsureUser returns the existing profile or creates one with the
// student role. First sign-in runs through here.
func (s *UserService) EnsureUser(userID, email, fullName string) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err == nil {
		return user, nil
	}
	if !apperrors.IsNotFoundError(err) {
		return nil, err
	}

	now := time.Now()
	user = &models.User{
		ID:        userID,
		Email:     email,
		FullName:  fullName,
		Role:      models.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SaveUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SaveUser persists a user profile.
func (s *UserService) SaveUser(user *models.User) error {
	if user.ID == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}
	user.UpdatedAt = time.Now()
	if err := s.store.Save(collectionUsers, user.ID, user); err != nil {
		return apperrors.NewStorageError("failed to save user", err)
	}
	return nil
}

// SetRole changes a user's role.
func (s *UserService) SetRole(userID, role string) (*models.User, error) {
	if role != models.RoleStudent && role != models.RoleSupervisor {
		return nil, apperrors.NewValidationError("unknown role: "+role, nil)
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.SaveUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
