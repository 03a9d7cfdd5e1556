package models

// User is the identity blob returned by the login endpoint. The dashboard
// only displays it, so every field is optional.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// DisplayName returns the user's display name
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// MessageResponse is the error body the products API returns
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
