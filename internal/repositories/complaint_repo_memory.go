package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"denuncias/internal/models"

	"github.com/google/uuid"
)

// InMemoryComplaintRepository is an in-memory implementation of ComplaintRepository.
type InMemoryComplaintRepository struct {
	complaints map[string]models.Complaint
	mu         sync.RWMutex
}

// NewInMemoryComplaintRepository creates a new instance of InMemoryComplaintRepository.
func NewInMemoryComplaintRepository() *InMemoryComplaintRepository {
	return &InMemoryComplaintRepository{
		complaints: make(map[string]models.Complaint),
	}
}

// GetAll returns all complaints, newest first.
func (r *InMemoryComplaintRepository) GetAll() ([]models.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Complaint, 0, len(r.complaints))
	for _, c := range r.complaints {
		list = append(list, c)
	}
	sortNewestFirst(list)
	return list, nil
}

// GetByID returns a complaint by its ID.
func (r *InMemoryComplaintRepository) GetByID(id string) (*models.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.complaints[id]
	if !ok {
		return nil, fmt.Errorf("complaint with ID %s not found: %w", id, models.ErrNotFound)
	}
	return &c, nil
}

// GetByOwner returns the complaints owned by userID, newest first.
func (r *InMemoryComplaintRepository) GetByOwner(userID string) ([]models.Complaint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Complaint, 0)
	for _, c := range r.complaints {
		if c.UserID == userID {
			list = append(list, c)
		}
	}
	sortNewestFirst(list)
	return list, nil
}

// Create adds a new complaint.
func (r *InMemoryComplaintRepository) Create(complaint *models.Complaint) error {
	if complaint.UserID == "" {
		return models.ErrOwnerRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if complaint.ID == "" {
		complaint.ID = uuid.New().String()
	}
	if complaint.Status == "" {
		complaint.Status = models.StatusPending
	}
	now := time.Now()
	complaint.CreatedAt = now
	complaint.UpdatedAt = now
	stored := *complaint
	stored.User = nil
	r.complaints[complaint.ID] = stored
	return nil
}

// UpdateFields applies the given columns to a stored complaint.
func (r *InMemoryComplaintRepository) UpdateFields(id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.complaints[id]
	if !ok {
		return fmt.Errorf("complaint with ID %s not found for update: %w", id, models.ErrNotFound)
	}
	for column, value := range fields {
		switch column {
		case "title":
			c.Title = value.(string)
		case "category":
			c.Category = value.(string)
		case "status":
			c.Status = value.(string)
		case "address":
			c.Address = stringValue(value)
		case "description":
			c.Description = stringValue(value)
		case "photo_url":
			c.PhotoURL = stringValue(value)
		case "latitude":
			v := value.(float64)
			c.Latitude = &v
		case "longitude":
			v := value.(float64)
			c.Longitude = &v
		default:
			return fmt.Errorf("unknown complaint column %q", column)
		}
	}
	c.UpdatedAt = time.Now()
	r.complaints[id] = c
	return nil
}

// Delete removes a complaint by its ID.
func (r *InMemoryComplaintRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.complaints[id]; !ok {
		return fmt.Errorf("complaint with ID %s not found for deletion: %w", id, models.ErrNotFound)
	}
	delete(r.complaints, id)
	return nil
}

func stringValue(value interface{}) *string {
	switch v := value.(type) {
	case string:
		return &v
	case *string:
		return v
	}
	return nil
}

func sortNewestFirst(list []models.Complaint) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
