package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cleanstack/authcore/identity"
	"github.com/cleanstack/authcore/localauth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	Expires      time.Time         `json:"expires"`
	User         identity.Identity `json:"user"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		id, err := s.local.Authenticate(req.Email, req.Password)
		if err != nil {
			// Always the same message: never reveal whether the email exists.
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		pair, err := s.local.IssueSession(id)
		if err != nil {
			log.Err(err).Msg("failed to issue session")
			writeError(w, http.StatusInternalServerError, "An error occurred during login")
			return
		}

		log.Info().Str("email", req.Email).Msg("user logged in")
		writeJSON(w, http.StatusOK, tokenPairResponse(pair))
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		id, err := s.local.Register(req.Email, req.Password, req.Name)
		if err != nil {
			if errors.Is(err, localauth.ErrEmailTaken) {
				writeError(w, http.StatusConflict, "User with this email already exists")
				return
			}
			log.Err(err).Msg("failed to register user")
			writeError(w, http.StatusInternalServerError, "An error occurred during registration")
			return
		}

		pair, err := s.local.IssueSession(id)
		if err != nil {
			log.Err(err).Msg("failed to issue session")
			writeError(w, http.StatusInternalServerError, "An error occurred during registration")
			return
		}

		writeJSON(w, http.StatusOK, tokenPairResponse(pair))
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
			writeError(w, http.StatusBadRequest, "refreshToken is required")
			return
		}

		pair, err := s.local.Refresh(req.RefreshToken)
		if err != nil {
			if errors.Is(err, localauth.ErrInvalidRefreshToken) {
				writeError(w, http.StatusUnauthorized, "Invalid refresh token")
				return
			}
			log.Err(err).Msg("failed to refresh session")
			writeError(w, http.StatusInternalServerError, "An error occurred during token refresh")
			return
		}

		writeJSON(w, http.StatusOK, tokenPairResponse(pair))
	}
}

// LogoutHandler revokes the refresh token when supplied. Best-effort only:
// the access token stays valid until expiry.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.local.Logout(req.RefreshToken)

		if id, ok := IdentityFromContext(r.Context()); ok {
			log.Info().Str("user_id", id.ID).Msg("user logged out")
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

// MeHandler returns the identity reconstructed from the validated bearer token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "You are not authorized")
			return
		}
		writeJSON(w, http.StatusOK, id)
	}
}

// CallbackHandler completes the federated flow. Failures redirect back to the
// login entry point with an error summary rather than surfacing a fault page.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		if errorParam != "" {
			redirectLoginError(w, r, errorParam)
			return
		}
		if code == "" || state == "" {
			redirectLoginError(w, r, "missing code or state parameter")
			return
		}

		if _, err := s.manager.CompleteFederatedLogin(r.Context(), code, state); err != nil {
			log.Warn().Err(err).Msg("federated callback failed")
			redirectLoginError(w, r, "sign-in failed")
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func redirectLoginError(w http.ResponseWriter, r *http.Request, summary string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(summary), http.StatusSeeOther)
}

func tokenPairResponse(pair *localauth.TokenPair) loginResponse {
	return loginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Expires:      pair.ExpiresAt,
		User:         pair.Identity,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
