package models

import "time"

// Complaint statuses.
const (
	StatusPending    = "Pendente"
	StatusInProgress = "em_andamento"
	StatusResolved   = "Resolvido"
	StatusCancelled  = "Cancelado"
)

// IsValidStatus reports whether status is one of the known complaint statuses.
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusResolved, StatusCancelled:
		return true
	}
	return false
}

// Complaint represents an issue reported by a user.
type Complaint struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"title" gorm:"type:varchar(255);not null"`
	Category    string    `json:"category" gorm:"type:varchar(50);not null"`
	Status      string    `json:"status" gorm:"type:varchar(20);not null;default:Pendente"`
	Address     *string   `json:"address,omitempty" gorm:"type:varchar(255)"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	PhotoURL    *string   `json:"photo_url,omitempty" gorm:"type:varchar(255)"`
	UserID      string    `json:"user_id" gorm:"type:varchar(36);not null;index"`
	User        *User     `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewComplaint builds a pending complaint owned by userID.
// A complaint without an owner is invalid.
func NewComplaint(userID, title, category string) (*Complaint, error) {
	if userID == "" {
		return nil, ErrOwnerRequired
	}
	return &Complaint{
		UserID:   userID,
		Title:    title,
		Category: category,
		Status:   StatusPending,
	}, nil
}

// Location returns the complaint's coordinates for map display. Typed
// latitude/longitude win; rows that only carry a "lat,lng" address are
// parsed as a fallback. ok is false when neither yields a coordinate.
func (c *Complaint) Location() (ComplaintLocation, bool) {
	loc := ComplaintLocation{
		ID:       c.ID,
		Title:    c.Title,
		Category: c.Category,
		Status:   c.Status,
	}
	if c.Latitude != nil && c.Longitude != nil {
		loc.Latitude, loc.Longitude = *c.Latitude, *c.Longitude
		return loc, true
	}
	if c.Address == nil {
		return loc, false
	}
	lat, lng, ok := ParseCoordinates(*c.Address)
	if !ok {
		return loc, false
	}
	loc.Latitude, loc.Longitude = lat, lng
	return loc, true
}

// ComplaintLocation is the read-only projection used by the map endpoint.
type ComplaintLocation struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Category  string  `json:"category"`
	Status    string  `json:"status"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ComplaintPatch carries a partial update. Nil fields are left untouched.
type ComplaintPatch struct {
	Title       *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Category    *string  `json:"category" validate:"omitempty,min=1,max=50"`
	Status      *string  `json:"status" validate:"omitempty,complaint_status"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
}

// Columns returns the column/value pairs present in the patch.
func (p ComplaintPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Category != nil {
		cols["category"] = *p.Category
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Latitude != nil {
		cols["latitude"] = *p.Latitude
	}
	if p.Longitude != nil {
		cols["longitude"] = *p.Longitude
	}
	return cols
}

// Apply copies the present fields onto c.
func (p ComplaintPatch) Apply(c *Complaint) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Address != nil {
		v := *p.Address
		c.Address = &v
	}
	if p.Description != nil {
		v := *p.Description
		c.Description = &v
	}
	if p.Latitude != nil {
		v := *p.Latitude
		c.Latitude = &v
	}
	if p.Longitude != nil {
		v := *p.Longitude
		c.Longitude = &v
	}
}

// Complaint lifecycle event names.
const (
	EventComplaintCreated = "complaint.created"
	EventComplaintUpdated = "complaint.updated"
	EventComplaintDeleted = "complaint.deleted"
)

// ComplaintEvent is published whenever a complaint changes.
type ComplaintEvent struct {
	Event       string    `json:"event"`
	ComplaintID string    `json:"complaint_id"`
	OwnerID     string    `json:"owner_id"`
	ActorID     string    `json:"actor_id"`
	Status      string    `json:"status,omitempty"`
	Fields      []string  `json:"fields,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
