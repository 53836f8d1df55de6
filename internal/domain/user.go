/**
 * @description
 * User domain model and the DTOs for signup, password login, and the social
 * auth endpoints.
 *
 * @notes
 * - Accounts created through Google or Facebook login have no password hash.
 *   The auth provider is recorded so a later password signup with the same
 *   email does not silently take over a social-only account.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Auth providers recorded on a user account.
const (
	AuthProviderPassword = "password"
	AuthProviderGoogle   = "google"
	AuthProviderFacebook = "facebook"
)

// User is an account on the platform. Donations can optionally be linked to
// one, but the donation flow never requires an account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash *string   `json:"-"`
	AuthProvider string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// SignupRequest is the DTO for POST /api/accounts/signup.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest is the DTO for POST /api/accounts/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SocialUserInfo is the profile payload the frontend extracts from the
// identity provider and forwards with the credential.
type SocialUserInfo struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// GoogleAuthRequest is the DTO for POST /api/accounts/auth/google.
type GoogleAuthRequest struct {
	Credential string         `json:"credential"`
	UserInfo   SocialUserInfo `json:"user_info"`
}

// FacebookAuthRequest is the DTO for POST /api/accounts/auth/facebook.
type FacebookAuthRequest struct {
	AccessToken string         `json:"access_token"`
	UserInfo    SocialUserInfo `json:"user_info"`
}

// AuthResponse is returned by login and the social auth endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
