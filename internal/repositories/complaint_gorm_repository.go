package repositories

import (
	"errors"
	"fmt"

	"denuncias/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMComplaintRepository is a GORM implementation of ComplaintRepository.
type GORMComplaintRepository struct {
	db *gorm.DB
}

// NewGORMComplaintRepository creates a new instance of GORMComplaintRepository.
func NewGORMComplaintRepository(db *gorm.DB) *GORMComplaintRepository {
	return &GORMComplaintRepository{
		db: db,
	}
}

// GetAll retrieves all complaints, newest first, with their owners.
func (r *GORMComplaintRepository) GetAll() ([]models.Complaint, error) {
	var complaints []models.Complaint
	if err := r.db.Preload("User").Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, fmt.Errorf("failed to get all complaints: %w", err)
	}
	return complaints, nil
}

// GetByID retrieves a single complaint by its ID.
func (r *GORMComplaintRepository) GetByID(id string) (*models.Complaint, error) {
	var complaint models.Complaint
	if err := r.db.Preload("User").First(&complaint, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("complaint with ID %s not found: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get complaint by ID %s: %w", id, err)
	}
	return &complaint, nil
}

// GetByOwner retrieves the complaints submitted by userID.
func (r *GORMComplaintRepository) GetByOwner(userID string) ([]models.Complaint, error) {
	var complaints []models.Complaint
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&complaints).Error; err != nil {
		return nil, fmt.Errorf("failed to get complaints for user %s: %w", userID, err)
	}
	return complaints, nil
}

// Create creates a new complaint in the database.
func (r *GORMComplaintRepository) Create(complaint *models.Complaint) error {
	if complaint.UserID == "" {
		return models.ErrOwnerRequired
	}
	if complaint.ID == "" {
		complaint.ID = uuid.New().String()
	}
	if complaint.Status == "" {
		complaint.Status = models.StatusPending
	}
	if err := r.db.Omit("User").Create(complaint).Error; err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}
	return nil
}

// UpdateFields updates only the given columns of a complaint.
func (r *GORMComplaintRepository) UpdateFields(id string, fields map[string]interface{}) error {
	res := r.db.Model(&models.Complaint{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update complaint: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("complaint with ID %s not found for update: %w", id, models.ErrNotFound)
	}
	return nil
}

// Delete deletes a complaint by its ID.
func (r *GORMComplaintRepository) Delete(id string) error {
	res := r.db.Delete(&models.Complaint{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete complaint: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("complaint with ID %s not found for deletion: %w", id, models.ErrNotFound)
	}
	return nil
}
