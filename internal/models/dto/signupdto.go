package dto

// SignupRequestDTO is the payload of a signup submission. The form tags name
// the HTML inputs of the signup view.
type SignupRequestDTO struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
	Role     string `json:"role" form:"role" validate:"required,oneof=admin accountant"`
}

type SignupResponseDTO struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}
