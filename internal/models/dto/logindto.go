package dto

type LoginRequestDTO struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

type LoginResponseDTO struct {
	Message string `json:"message"`
	Role    string `json:"role,omitempty"`
}
