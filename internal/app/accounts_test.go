package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
)

type accountsRepoStub struct {
	store.Repository

	usersByEmail map[string]*domain.User
	usersByID    map[uuid.UUID]*domain.User

	createdUser  *domain.User
	updatedNames bool
}

func newAccountsRepoStub() *accountsRepoStub {
	return &accountsRepoStub{
		usersByEmail: map[string]*domain.User{},
		usersByID:    map[uuid.UUID]*domain.User{},
	}
}

func (s *accountsRepoStub) add(user *domain.User) {
	s.usersByEmail[user.Email] = user
	s.usersByID[user.ID] = user
}

func (s *accountsRepoStub) CreateUser(ctx context.Context, user *domain.User) error {
	if _, exists := s.usersByEmail[user.Email]; exists {
		return store.ErrEmailTaken
	}
	s.createdUser = user
	s.add(user)
	return nil
}

func (s *accountsRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

func (s *accountsRepoStub) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := s.usersByID[id]; ok {
		return user, nil
	}
	return nil, store.ErrUserNotFound
}

func (s *accountsRepoStub) UpdateUserNames(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	s.updatedNames = true
	if user, ok := s.usersByID[id]; ok {
		user.FirstName = firstName
		user.LastName = lastName
	}
	return nil
}

func newTestAccounts(repo store.Repository) *Accounts {
	return NewAccounts(repo, NewTokenIssuer("test-signing-key"))
}

func hashOf(t *testing.T, password string) *string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	s := string(hash)
	return &s
}

func TestSignupIssuesSession(t *testing.T) {
	repo := newAccountsRepoStub()
	accounts := newTestAccounts(repo)

	resp, err := accounts.Signup(context.Background(), domain.SignupRequest{
		Email:     "Donor@Example.com",
		Password:  "correct-horse",
		FirstName: "Dana",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if repo.createdUser.Email != "donor@example.com" {
		t.Fatalf("expected lowercased email, got %q", repo.createdUser.Email)
	}
	if repo.createdUser.PasswordHash == nil {
		t.Fatal("expected password hash to be stored")
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	accounts := newTestAccounts(newAccountsRepoStub())

	_, err := accounts.Signup(context.Background(), domain.SignupRequest{
		Email:    "donor@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newAccountsRepoStub()
	repo.add(&domain.User{
		ID:           uuid.New(),
		Email:        "donor@example.com",
		PasswordHash: hashOf(t, "right-password"),
		AuthProvider: domain.AuthProviderPassword,
	})
	accounts := newTestAccounts(repo)

	_, err := accounts.Login(context.Background(), domain.LoginRequest{
		Email:    "donor@example.com",
		Password: "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginSocialOnlyAccountHasNoPassword(t *testing.T) {
	repo := newAccountsRepoStub()
	repo.add(&domain.User{
		ID:           uuid.New(),
		Email:        "social@example.com",
		AuthProvider: domain.AuthProviderGoogle,
	})
	accounts := newTestAccounts(repo)

	_, err := accounts.Login(context.Background(), domain.LoginRequest{
		Email:    "social@example.com",
		Password: "anything-at-all",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for social-only account, got %v", err)
	}
}

func TestSocialLoginCreatesAccount(t *testing.T) {
	repo := newAccountsRepoStub()
	accounts := newTestAccounts(repo)

	resp, err := accounts.SocialLogin(context.Background(), domain.AuthProviderGoogle, "google-credential", domain.SocialUserInfo{
		Email:      "New@Example.com",
		GivenName:  "Nia",
		FamilyName: "Okafor",
	})
	if err != nil {
		t.Fatalf("SocialLogin() error = %v", err)
	}
	if repo.createdUser == nil {
		t.Fatal("expected a new user record")
	}
	if repo.createdUser.AuthProvider != domain.AuthProviderGoogle {
		t.Fatalf("expected google provider, got %q", repo.createdUser.AuthProvider)
	}
	if resp.User.FirstName != "Nia" {
		t.Fatalf("expected first name from profile, got %q", resp.User.FirstName)
	}
}

func TestSocialLoginBackfillsMissingNames(t *testing.T) {
	repo := newAccountsRepoStub()
	repo.add(&domain.User{
		ID:           uuid.New(),
		Email:        "existing@example.com",
		AuthProvider: domain.AuthProviderPassword,
	})
	accounts := newTestAccounts(repo)

	resp, err := accounts.SocialLogin(context.Background(), domain.AuthProviderFacebook, "fb-token", domain.SocialUserInfo{
		Email:      "existing@example.com",
		GivenName:  "Femi",
		FamilyName: "Ade",
	})
	if err != nil {
		t.Fatalf("SocialLogin() error = %v", err)
	}
	if !repo.updatedNames {
		t.Fatal("expected names to be backfilled")
	}
	if resp.User.FirstName != "Femi" || resp.User.LastName != "Ade" {
		t.Fatalf("expected backfilled names, got %q %q", resp.User.FirstName, resp.User.LastName)
	}
	if repo.createdUser != nil {
		t.Fatal("expected no duplicate account")
	}
}

func TestSocialLoginRequiresCredentialAndEmail(t *testing.T) {
	accounts := newTestAccounts(newAccountsRepoStub())

	if _, err := accounts.SocialLogin(context.Background(), domain.AuthProviderGoogle, "", domain.SocialUserInfo{Email: "a@b.c"}); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := accounts.SocialLogin(context.Background(), domain.AuthProviderGoogle, "cred", domain.SocialUserInfo{}); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
}

func TestWhoAmIRoundTrip(t *testing.T) {
	repo := newAccountsRepoStub()
	user := &domain.User{ID: uuid.New(), Email: "donor@example.com"}
	repo.add(user)
	accounts := newTestAccounts(repo)

	token, err := accounts.tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := accounts.WhoAmI(context.Background(), token)
	if err != nil {
		t.Fatalf("WhoAmI() error = %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestWhoAmIRejectsGarbageToken(t *testing.T) {
	accounts := newTestAccounts(newAccountsRepoStub())

	if _, err := accounts.WhoAmI(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestWhoAmIRejectsTokenForDeletedUser(t *testing.T) {
	accounts := newTestAccounts(newAccountsRepoStub())

	token, err := accounts.tokens.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := accounts.WhoAmI(context.Background(), token); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
