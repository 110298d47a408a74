package repositories

import (
	"denuncias/internal/models"
)

// ComplaintRepository defines the interface for complaint data access.
type ComplaintRepository interface {
	GetAll() ([]models.Complaint, error)
	GetByID(id string) (*models.Complaint, error)
	GetByOwner(userID string) ([]models.Complaint, error)
	Create(complaint *models.Complaint) error
	// UpdateFields applies only the given columns.
	UpdateFields(id string, fields map[string]interface{}) error
	Delete(id string) error
}
