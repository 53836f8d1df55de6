/**
 * @description
 * HTTP handlers for the account endpoints: signup, login, social login,
 * session introspection, and logout. Session tokens are bearer tokens issued
 * at signup/login; GET /api/accounts/me is where a client discovers whether
 * its stored token is still good.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/freedomfund/donation-service/internal/app"
	"github.com/freedomfund/donation-service/internal/domain"
	"github.com/freedomfund/donation-service/internal/store"
)

// AccountHandlers holds the account service the handlers call into.
type AccountHandlers struct {
	accounts *app.Accounts
}

// NewAccountHandlers creates a new instance of AccountHandlers.
func NewAccountHandlers(accounts *app.Accounts) *AccountHandlers {
	return &AccountHandlers{accounts: accounts}
}

// SignupHandler registers a new password account and returns a session.
func (h *AccountHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.accounts.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			writeError(w, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, app.ErrMissingEmail):
			writeError(w, http.StatusBadRequest, "Email is required")
		case errors.Is(err, app.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		default:
			log.Printf("level=error component=api endpoint=signup err=%v", err)
			writeError(w, http.StatusInternalServerError, "Could not create account")
		}
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// LoginHandler authenticates a password account and returns a session.
func (h *AccountHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("level=error component=api endpoint=login err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not log in")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// GoogleAuthHandler exchanges a Google credential for a session.
func (h *AccountHandlers) GoogleAuthHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.socialLogin(w, r, domain.AuthProviderGoogle, req.Credential, req.UserInfo)
}

// FacebookAuthHandler exchanges a Facebook access token for a session.
func (h *AccountHandlers) FacebookAuthHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.FacebookAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.socialLogin(w, r, domain.AuthProviderFacebook, req.AccessToken, req.UserInfo)
}

func (h *AccountHandlers) socialLogin(w http.ResponseWriter, r *http.Request, provider, credential string, info domain.SocialUserInfo) {
	session, err := h.accounts.SocialLogin(r.Context(), provider, credential, info)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingCredential):
			writeError(w, http.StatusBadRequest, "Missing credential")
		case errors.Is(err, app.ErrMissingEmail):
			writeError(w, http.StatusBadRequest, "Social profile did not include an email")
		default:
			log.Printf("level=error component=api endpoint=social_login provider=%s err=%v", provider, err)
			writeError(w, http.StatusInternalServerError, "Could not log in")
		}
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// MeHandler returns the user behind the presented bearer token. A missing,
// invalid, or orphaned token gets 401 so clients know to drop their copy.
func (h *AccountHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.accounts.WhoAmI(r.Context(), token)
	if err != nil {
		if errors.Is(err, app.ErrInvalidToken) || errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "Session is no longer valid")
			return
		}
		log.Printf("level=error component=api endpoint=me err=%v", err)
		writeError(w, http.StatusInternalServerError, "Could not load account")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LogoutHandler acknowledges a logout. Tokens are stateless, so there is
// nothing to revoke server-side; clients discard their stored copy.
func (h *AccountHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
