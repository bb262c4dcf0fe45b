package request

// LoginRequest represents a login request. The optional mode declares
// whether the client considers itself connected; it defaults to online.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Mode     string `json:"mode"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangeRoleRequest assigns a role to a user
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
