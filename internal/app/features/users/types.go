package users

import "github.com/dalemusser/clubsphere/internal/domain/models"

type createRequest struct {
	Email       string `json:"email" validate:"required,email_addr"`
	DisplayName string `json:"displayName" validate:"max=200"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

type createResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}

type roleResponse struct {
	Role string `json:"role"`
}
