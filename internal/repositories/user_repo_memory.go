package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"denuncias/internal/models"

	"github.com/google/uuid"
)

// InMemoryUserRepository is an in-memory implementation of UserRepository.
// Username, email and CPF are unique, as in the database schema.
type InMemoryUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewInMemoryUserRepository creates a new instance of InMemoryUserRepository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user.
func (r *InMemoryUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email || u.CPF == user.CPF {
			return fmt.Errorf("user %s already exists: %w", user.Username, models.ErrConflict)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns a user by username.
func (r *InMemoryUserRepository) GetByUsername(username string) (*models.User, error) {
	return r.find("username", username, func(u models.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *InMemoryUserRepository) GetByEmail(email string) (*models.User, error) {
	return r.find("email", email, func(u models.User) bool { return u.Email == email })
}

// GetByCPF returns a user by CPF.
func (r *InMemoryUserRepository) GetByCPF(cpf string) (*models.User, error) {
	return r.find("cpf", cpf, func(u models.User) bool { return u.CPF == cpf })
}

// GetByID returns a user by ID.
func (r *InMemoryUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user with id %s not found: %w", id, models.ErrNotFound)
	}
	return &u, nil
}

// GetAll returns all users ordered by creation time.
func (r *InMemoryUserRepository) GetAll() ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		list = append(list, u)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

// Update replaces the mutable profile fields of an existing user.
func (r *InMemoryUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return fmt.Errorf("user with ID %s not found for update: %w", user.ID, models.ErrNotFound)
	}
	stored.Phone = user.Phone
	stored.AvatarURL = user.AvatarURL
	stored.Role = user.Role
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = stored
	return nil
}

func (r *InMemoryUserRepository) find(field, value string, match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user with %s %s not found: %w", field, value, models.ErrNotFound)
}
