package server

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/pengpongpang/deepbrain/internal/auth"
	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/errors"
)

// registerRequest is the body of POST /api/auth/register.
type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

func (r *registerRequest) validate() error {
	if err := errors.ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := errors.ValidateUsername(r.Username); err != nil {
		return err
	}
	return errors.ValidatePassword(r.Password)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if err := req.validate(); err != nil {
		writeError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "Could not hash password"))
		return
	}

	u := &store.User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: hash,
	}
	if err := s.store.Users().Create(r.Context(), u); err != nil {
		switch {
		case stderrors.Is(err, store.ErrEmailTaken):
			writeError(w, errors.New(errors.ErrCodeConflict, "Email already registered"))
		case stderrors.Is(err, store.ErrUsernameTaken):
			writeError(w, errors.New(errors.ErrCodeConflict, "Username already taken"))
		default:
			writeError(w, errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"user_id": u.ID,
	})
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the login response, matching the shape API clients
// already parse.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	u, err := s.store.Users().ByEmail(r.Context(), email)
	if err != nil || !auth.VerifyPassword(u.HashedPassword, req.Password) {
		// One message for both a missing account and a wrong password.
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, errors.New(errors.ErrCodeUnauthorized, "Incorrect email or password"))
		return
	}

	token, err := s.auth.Issue(u.ID)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "Could not issue token"))
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: auth.TokenType})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
}

// updateMeRequest is the body of PUT /api/auth/me. Only username and full
// name are caller-writable; everything else on the account is managed by
// the service.
type updateMeRequest struct {
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == nil && req.FullName == nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "No valid fields to update"))
		return
	}

	u := auth.FromContext(r.Context())
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if err := errors.ValidateUsername(name); err != nil {
			writeError(w, err)
			return
		}
		u.Username = name
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}

	if err := s.store.Users().Update(r.Context(), u); err != nil {
		if stderrors.Is(err, store.ErrUsernameTaken) {
			writeError(w, errors.New(errors.ErrCodeConflict, "Username already taken"))
			return
		}
		writeError(w, mapStoreErr(err, errors.ErrCodeUserNotFound, "User not found"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
