package models

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" form:"email" validate:"required,email,max=120"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
	Phone    string `json:"phone" form:"phone" validate:"required,phone"`
	CPF      string `json:"cpf" form:"cpf" validate:"required,cpf"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// CreateComplaintRequest is the body of POST /complaints, either JSON or
// multipart form (with an optional "photo" file part).
type CreateComplaintRequest struct {
	Title       string   `json:"title" form:"title" validate:"required,min=3,max=255"`
	Category    string   `json:"category" form:"category" validate:"required,max=50"`
	Address     *string  `json:"address" form:"address" validate:"omitempty,max=255"`
	Description *string  `json:"description" form:"description" validate:"omitempty,max=5000"`
	Latitude    *float64 `json:"latitude" form:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude" form:"longitude" validate:"omitempty,min=-180,max=180"`
}

// UpdateProfileRequest is the body of PATCH /users/me.
type UpdateProfileRequest struct {
	Phone *string `json:"phone" form:"phone" validate:"omitempty,phone"`
}

// UpdateRoleRequest is the body of PATCH /admin/users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}
