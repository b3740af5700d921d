package grpcserver

import (
	"time"

	"github.com/and161185/goph-auth/internal/model"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
	Mobile          *string `json:"mobile,omitempty"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token; also used by Logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type GetProfileRequest struct{}

// UpdateProfileRequest changes only the fields that are present.
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Mobile *string `json:"mobile,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}

type DeleteAccountRequest struct {
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

// User is the public view of an account. The password hash never leaves the server.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Mobile    *string   `json:"mobile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Tokens struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	Message string  `json:"message"`
	User    *User   `json:"user"`
	Tokens  *Tokens `json:"tokens"`
}

type TokensResponse struct {
	Tokens *Tokens `json:"tokens"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileResponse is returned by GetProfile and UpdateProfile.
type ProfileResponse struct {
	Message string `json:"message,omitempty"`
	User    *User  `json:"user"`
}

type ChangePasswordResponse struct {
	Message string  `json:"message"`
	Tokens  *Tokens `json:"tokens"`
}

func toUser(a *model.Account) *User {
	u := &User{
		ID:        a.ID.String(),
		Email:     a.Identity,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Contact != nil {
		c := *a.Contact
		u.Mobile = &c
	}
	return u
}

func toTokens(p model.TokenPair) *Tokens {
	return &Tokens{
		Access:           p.AccessToken,
		Refresh:          p.RefreshToken,
		AccessExpiresAt:  p.AccessExpiresAt,
		RefreshExpiresAt: p.RefreshExpiresAt,
	}
}
