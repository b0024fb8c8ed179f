package domain

import "time"

// User represents a user entity.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Bio            string    `json:"bio,omitempty"`
	Location       string    `json:"location,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CoverPhoto     string    `json:"cover_photo,omitempty"`
	PasswordHash   string    `json:"-"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	Connections    []string  `json:"connections"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToRef converts a User to its minimal display form.
func (u *User) ToRef() UserRef {
	return UserRef{
		ID:             u.ID,
		FullName:       u.FullName,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the user and a token pair after register/login.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// UpdateProfileRequest is the multipart form contract of the profile
// update endpoint. Profile and cover images travel as files.
type UpdateProfileRequest struct {
	Username string `form:"username"`
	Bio      string `form:"bio"`
	Location string `form:"location"`
	FullName string `form:"full_name"`
}

// TargetUserRequest is the common "act on this user" request body.
type TargetUserRequest struct {
	ID string `json:"id" binding:"required"`
}

// RefreshTokenRequest carries the refresh token for a new pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// DiscoverRequest is the body of the user search endpoint.
type DiscoverRequest struct {
	Query string `json:"query" binding:"required"`
}

// ProfileRequest is the body of the public profile endpoint.
type ProfileRequest struct {
	ProfileID string `json:"profile_id" binding:"required"`
}
