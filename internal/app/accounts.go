/**
 * @description
 * Account logic: email/password signup and login plus the Google/Facebook
 * social login paths. Social login trusts the profile the frontend extracted
 * from the provider and gets-or-creates the account by email, backfilling
 * empty names on repeat logins.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Password hashing.
 * - internal/domain, internal/store: Domain models and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredential  = errors.New("credential required")
	ErrMissingEmail       = errors.New("email not provided")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Accounts provides signup, login, and session validation.
type Accounts struct {
	repo   store.Repository
	tokens *TokenIssuer
}

// NewAccounts creates the accounts service.
func NewAccounts(repo store.Repository, tokens *TokenIssuer) *Accounts {
	return &Accounts{repo: repo, tokens: tokens}
}

// Signup registers a new password account and returns a session.
func (a *Accounts) Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, ErrMissingEmail
	}
	if len(req.Password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: &hashStr,
		AuthProvider: domain.AuthProviderPassword,
	}
	if err := a.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return a.sessionFor(user)
}

// Login authenticates an email/password pair.
func (a *Accounts) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := a.repo.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		// Social-only account; no password to check against.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a.sessionFor(user)
}

// SocialLogin gets-or-creates an account from a social identity payload.
// The credential itself is opaque here: the frontend already exchanged it
// with the provider and forwards the parsed profile.
func (a *Accounts) SocialLogin(ctx context.Context, provider, credential string, info domain.SocialUserInfo) (*domain.AuthResponse, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}
	email := strings.TrimSpace(strings.ToLower(info.Email))
	if email == "" {
		return nil, ErrMissingEmail
	}

	user, err := a.repo.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Backfill names that were never captured.
		firstName, lastName := user.FirstName, user.LastName
		if firstName == "" && info.GivenName != "" {
			firstName = info.GivenName
		}
		if lastName == "" && info.FamilyName != "" {
			lastName = info.FamilyName
		}
		if firstName != user.FirstName || lastName != user.LastName {
			if err := a.repo.UpdateUserNames(ctx, user.ID, firstName, lastName); err != nil {
				log.Printf("level=warn component=accounts msg=\"failed to backfill names\" user_id=%s err=%v", user.ID, err)
			} else {
				user.FirstName, user.LastName = firstName, lastName
			}
		}
	case errors.Is(err, store.ErrUserNotFound):
		user = &domain.User{
			ID:           uuid.New(),
			Email:        email,
			FirstName:    info.GivenName,
			LastName:     info.FamilyName,
			AuthProvider: provider,
		}
		if err := a.repo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		log.Printf("level=info component=accounts msg=\"created user via social login\" provider=%s user_id=%s", provider, user.ID)
	default:
		return nil, err
	}

	return a.sessionFor(user)
}

// WhoAmI validates a bearer token and returns the user it belongs to.
func (a *Accounts) WhoAmI(ctx context.Context, token string) (*domain.User, error) {
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return a.repo.FindUserByID(ctx, userID)
}

func (a *Accounts) sessionFor(user *domain.User) (*domain.AuthResponse, error) {
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{Token: token, User: *user}, nil
}
