package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"denuncias/internal/access"
	"denuncias/internal/models"
	"denuncias/internal/repositories"
	"denuncias/internal/validation"

	"go.uber.org/zap"
)

// UserService implements profile and user administration use cases.
type UserService struct {
	repo   repositories.UserRepository
	photos *PhotoService
	logger *zap.Logger
}

// NewUserService creates a new UserService. photos may be nil, which
// disables avatar uploads.
func NewUserService(repo repositories.UserRepository, photos *PhotoService, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, photos: photos, logger: logger}
}

// GetUser returns userID if the caller may see it.
func (s *UserService) GetUser(id access.Identity, userID string) (*models.User, error) {
	if err := access.CanViewUser(id, userID).Err(); err != nil {
		return nil, err
	}
	return s.repo.GetByID(userID)
}

// UpdateProfile changes the caller's phone and/or avatar.
func (s *UserService) UpdateProfile(ctx context.Context, id access.Identity, req models.UpdateProfileRequest, avatar io.Reader) (*models.User, error) {
	if req.Phone == nil && avatar == nil {
		return nil, models.ErrNoFieldsToUpdate
	}
	user, err := s.repo.GetByID(id.UserID)
	if err != nil {
		return nil, err
	}

	if req.Phone != nil {
		phone, err := validation.NormalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		user.Phone = phone
	}

	var previous *string
	if avatar != nil {
		if s.photos == nil {
			return nil, fmt.Errorf("photo storage is not configured: %w", models.ErrBadRequest)
		}
		url, err := s.photos.Save(ctx, PhotoKindAvatar, user.ID, avatar)
		if err != nil {
			return nil, err
		}
		previous = user.AvatarURL
		user.AvatarURL = &url
	}

	if err := s.repo.Update(user); err != nil {
		if avatar != nil {
			s.photos.Remove(ctx, user.AvatarURL)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if previous != nil {
		s.photos.Remove(ctx, previous)
	}
	s.logger.Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}

// ListUsers returns every user. Admin only.
func (s *UserService) ListUsers(id access.Identity) ([]models.User, error) {
	if err := access.RequireRole(id, models.RoleAdmin).Err(); err != nil {
		return nil, err
	}
	users, err := s.repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ChangeRole sets the role of userID. Admins cannot demote themselves.
func (s *UserService) ChangeRole(id access.Identity, userID, role string) (*models.User, error) {
	if err := access.RequireRole(id, models.RoleAdmin).Err(); err != nil {
		return nil, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q: %w", role, models.ErrBadRequest)
	}
	if userID == id.UserID {
		return nil, fmt.Errorf("admins cannot change their own role: %w", models.ErrBadRequest)
	}

	user, err := s.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Role == role {
		return user, nil
	}
	user.Role = role
	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	s.logger.Info("user role changed", zap.String("user_id", user.ID), zap.String("role", role), zap.String("actor_id", id.UserID))
	return user, nil
}
