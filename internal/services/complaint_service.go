package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"denuncias/internal/access"
	"denuncias/internal/metrics"
	"denuncias/internal/models"
	"denuncias/internal/repositories"

	"go.uber.org/zap"
)

// ComplaintService implements the complaint use cases on top of the
// repository, the ownership gate and the photo store.
type ComplaintService struct {
	repo    repositories.ComplaintRepository
	photos  *PhotoService
	events  EventPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewComplaintService creates a new ComplaintService. photos, events and m
// may be nil.
func NewComplaintService(repo repositories.ComplaintRepository, photos *PhotoService, events EventPublisher, m *metrics.Metrics, logger *zap.Logger) *ComplaintService {
	return &ComplaintService{
		repo:    repo,
		photos:  photos,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

// CreateComplaint stores a new pending complaint owned by the caller. When a
// photo is supplied and cannot be stored the complaint is kept without it.
func (s *ComplaintService) CreateComplaint(ctx context.Context, id access.Identity, req models.CreateComplaintRequest, photo io.Reader) (*models.Complaint, error) {
	complaint, err := models.NewComplaint(id.UserID, req.Title, req.Category)
	if err != nil {
		return nil, err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return nil, fmt.Errorf("latitude and longitude must be sent together: %w", models.ErrBadRequest)
	}
	complaint.Address = req.Address
	complaint.Description = req.Description
	complaint.Latitude = req.Latitude
	complaint.Longitude = req.Longitude

	if err := s.repo.Create(complaint); err != nil {
		return nil, fmt.Errorf("failed to create complaint: %w", err)
	}

	if photo != nil && s.photos != nil {
		url, err := s.photos.Save(ctx, PhotoKindComplaint, complaint.ID, photo)
		if err != nil {
			s.logger.Warn("complaint saved without photo", zap.String("complaint_id", complaint.ID), zap.Error(err))
		} else if err := s.repo.UpdateFields(complaint.ID, map[string]interface{}{"photo_url": url}); err != nil {
			s.logger.Warn("failed to attach photo", zap.String("complaint_id", complaint.ID), zap.Error(err))
			s.photos.Remove(ctx, &url)
		} else {
			complaint.PhotoURL = &url
		}
	}

	s.logger.Info("complaint created", zap.String("complaint_id", complaint.ID), zap.String("user_id", id.UserID))
	s.publish(models.EventComplaintCreated, id, complaint, nil)
	return complaint, nil
}

// ListAll returns every complaint. Admin only.
func (s *ComplaintService) ListAll(id access.Identity) ([]models.Complaint, error) {
	if err := access.RequireRole(id, models.RoleAdmin).Err(); err != nil {
		return nil, err
	}
	complaints, err := s.repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

// ListByOwner returns the complaints of ownerID, visible to that user and
// to admins.
func (s *ComplaintService) ListByOwner(id access.Identity, ownerID string) ([]models.Complaint, error) {
	if err := access.CanViewUser(id, ownerID).Err(); err != nil {
		return nil, err
	}
	complaints, err := s.repo.GetByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints of user %s: %w", ownerID, err)
	}
	return complaints, nil
}

// GetComplaint returns a single complaint if the caller may see it.
func (s *ComplaintService) GetComplaint(id access.Identity, complaintID string) (*models.Complaint, error) {
	complaint, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewComplaint(id, complaint).Err(); err != nil {
		return nil, err
	}
	return complaint, nil
}

// UpdateComplaint applies a partial update. Only the fields present in patch
// are written.
func (s *ComplaintService) UpdateComplaint(id access.Identity, complaintID string, patch models.ComplaintPatch) (*models.Complaint, error) {
	columns := patch.Columns()
	if len(columns) == 0 {
		return nil, models.ErrNoFieldsToUpdate
	}
	if patch.Status != nil && !models.IsValidStatus(*patch.Status) {
		return nil, fmt.Errorf("unknown status %q: %w", *patch.Status, models.ErrBadRequest)
	}

	complaint, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if err := access.CanModifyComplaint(id, complaint).Err(); err != nil {
		return nil, err
	}
	if !coordinatesPaired(patch, complaint) {
		return nil, fmt.Errorf("latitude and longitude must be set together: %w", models.ErrBadRequest)
	}
	if patch.Status != nil {
		if err := access.CanChangeStatus(id, complaint, *patch.Status).Err(); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateFields(complaintID, columns); err != nil {
		return nil, fmt.Errorf("failed to update complaint: %w", err)
	}
	patch.Apply(complaint)
	complaint.UpdatedAt = time.Now()

	fields := make([]string, 0, len(columns))
	for column := range columns {
		fields = append(fields, column)
	}
	sort.Strings(fields)
	s.logger.Info("complaint updated", zap.String("complaint_id", complaintID), zap.String("actor_id", id.UserID), zap.Strings("fields", fields))
	s.publish(models.EventComplaintUpdated, id, complaint, fields)
	return complaint, nil
}

// ReplacePhoto stores a new photo for the complaint and removes the old one.
func (s *ComplaintService) ReplacePhoto(ctx context.Context, id access.Identity, complaintID string, photo io.Reader) (*models.Complaint, error) {
	if s.photos == nil {
		return nil, fmt.Errorf("photo storage is not configured: %w", models.ErrBadRequest)
	}
	complaint, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, err
	}
	if err := access.CanModifyComplaint(id, complaint).Err(); err != nil {
		return nil, err
	}

	url, err := s.photos.Save(ctx, PhotoKindComplaint, complaint.ID, photo)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(complaintID, map[string]interface{}{"photo_url": url}); err != nil {
		s.photos.Remove(ctx, &url)
		return nil, fmt.Errorf("failed to update complaint photo: %w", err)
	}
	s.photos.Remove(ctx, complaint.PhotoURL)
	complaint.PhotoURL = &url

	s.publish(models.EventComplaintUpdated, id, complaint, []string{"photo_url"})
	return complaint, nil
}

// DeleteComplaint removes the complaint and, best effort, its photo.
func (s *ComplaintService) DeleteComplaint(ctx context.Context, id access.Identity, complaintID string) error {
	complaint, err := s.repo.GetByID(complaintID)
	if err != nil {
		return err
	}
	if err := access.CanModifyComplaint(id, complaint).Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(complaintID); err != nil {
		return fmt.Errorf("failed to delete complaint: %w", err)
	}
	if s.photos != nil {
		s.photos.Remove(ctx, complaint.PhotoURL)
	}

	s.logger.Info("complaint deleted", zap.String("complaint_id", complaintID), zap.String("actor_id", id.UserID))
	s.publish(models.EventComplaintDeleted, id, complaint, nil)
	return nil
}

// Locations returns map coordinates for every complaint that has them.
func (s *ComplaintService) Locations() ([]models.ComplaintLocation, error) {
	complaints, err := s.repo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return models.ExtractLocations(complaints), nil
}

// coordinatesPaired reports whether applying patch to c leaves either both
// coordinates set or neither.
func coordinatesPaired(patch models.ComplaintPatch, c *models.Complaint) bool {
	hasLat := c.Latitude != nil || patch.Latitude != nil
	hasLng := c.Longitude != nil || patch.Longitude != nil
	return hasLat == hasLng
}

func (s *ComplaintService) publish(event string, id access.Identity, c *models.Complaint, fields []string) {
	s.metrics.ComplaintEvent(event)
	if s.events == nil {
		return
	}
	err := s.events.PublishComplaintEvent(models.ComplaintEvent{
		Event:       event,
		ComplaintID: c.ID,
		OwnerID:     c.UserID,
		ActorID:     id.UserID,
		Status:      c.Status,
		Fields:      fields,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("failed to publish complaint event", zap.String("event", event), zap.String("complaint_id", c.ID), zap.Error(err))
	}
}
