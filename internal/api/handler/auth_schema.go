package handler

import "github.com/storefront/storefront-api/internal/core/domain"

// registerRequest is the body of POST /api/auth/register.
type registerRequest struct {
	Username string `json:"username" validate:"required,notblank,max=64" example:"alice"`
	Password string `json:"password" validate:"required,min=6,max=128" example:"secretpw"`
}

// loginRequest is the body of POST /api/auth/login. Shape problems are
// reported as bad credentials, so it carries no validate tags.
type loginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"secretpw"`
}

// userResponse is the public view of an account.
type userResponse struct {
	ID       int64  `json:"id"       example:"1"`
	Username string `json:"username" example:"alice"`
}

type messageResponse struct {
	Message string `json:"message" example:"logged out"`
}

// ErrorResponse is the error envelope rendered by the central error handler.
type ErrorResponse struct {
	Message string `json:"message"         example:"invalid credentials"`
	Field   string `json:"field,omitempty" example:"username"`
}

func toUserResponse(u domain.Public) userResponse {
	return userResponse{ID: u.ID, Username: u.Username}
}
