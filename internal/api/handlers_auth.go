package api

import (
	"errors"
	"net/http"
	"strings"

	"edupath-ksa/internal/auth"
	apperrors "edupath-ksa/internal/common/errors"
	"edupath-ksa/internal/common/validation"
	"edupath-ksa/internal/store"
)

var (
	registerSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["email", "password", "firstName"],
  "properties": {
    "firstName": {"type": "string", "minLength": 1, "maxLength": 100},
    "lastName": {"type": "string", "maxLength": 100},
    "email": {"type": "string", "format": "email", "maxLength": 255},
    "password": {"type": "string", "minLength": 8, "maxLength": 128},
    "phone": {"type": "string", "maxLength": 32},
    "birthdate": {"type": "string", "maxLength": 32},
    "gender": {"type": "string", "maxLength": 16},
    "educationLevel": {"type": "string", "maxLength": 64}
  }
}`)

	loginSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["email", "password"],
  "properties": {
    "email": {"type": "string", "minLength": 1},
    "password": {"type": "string", "minLength": 1}
  }
}`)

	refreshSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["refreshToken"],
  "properties": {
    "refreshToken": {"type": "string", "minLength": 1}
  }
}`)
)

type registerRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Phone          string `json:"phone"`
	Birthdate      string `json:"birthdate"`
	Gender         string `json:"gender"`
	EducationLevel string `json:"educationLevel"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User   *store.User    `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, registerSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			s.writeError(w, r, apperrors.NewValidationError(err.Error()))
			return
		}
		s.writeError(w, r, err)
		return
	}

	u := &store.User{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          req.Phone,
		Birthdate:      req.Birthdate,
		Gender:         req.Gender,
		EducationLevel: req.EducationLevel,
		Role:           string(auth.RoleStudent),
		PasswordHash:   hash,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.writeError(w, r, apperrors.NewConflictError("email already registered"))
			return
		}
		s.writeError(w, r, err)
		return
	}

	tokens, err := s.tokens.Issue(u.ID, auth.RoleStudent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("user registered", map[string]interface{}{"userId": u.ID})
	writeData(w, http.StatusCreated, authResponse{User: u, Tokens: tokens})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, loginSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, err)
		return
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.writeError(w, r, apperrors.NewUnauthorizedError("invalid email or password"))
		return
	}

	tokens, err := s.tokens.Issue(u.ID, auth.Role(u.Role))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, authResponse{User: u, Tokens: tokens})
}

// handleRefresh rotates the pair: the presented refresh token is revoked.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(w, r, refreshSchema, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	claims, err := s.tokens.Parse(r.Context(), req.RefreshToken, auth.KindRefresh)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewUnauthorizedError("user no longer exists"))
			return
		}
		s.writeError(w, r, err)
		return
	}

	if err := s.tokens.Revoke(r.Context(), claims); err != nil {
		s.writeError(w, r, apperrors.NewCacheFailedError(err))
		return
	}

	tokens, err := s.tokens.Issue(u.ID, auth.Role(u.Role))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, authResponse{User: u, Tokens: tokens})
}

// handleLogout revokes the access token and, when supplied, the caller's refresh token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var req refreshRequest
	if err := decodeBody(w, r, nil, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.tokens.Revoke(r.Context(), claims); err != nil {
		s.writeError(w, r, apperrors.NewCacheFailedError(err))
		return
	}

	revoked := 1
	if req.RefreshToken != "" {
		refresh, err := s.tokens.Parse(r.Context(), req.RefreshToken, auth.KindRefresh)
		if err == nil && refresh.UserID == claims.UserID {
			if err := s.tokens.Revoke(r.Context(), refresh); err != nil {
				s.writeError(w, r, apperrors.NewCacheFailedError(err))
				return
			}
			revoked++
		}
	}

	writeData(w, http.StatusOK, map[string]interface{}{"revoked": revoked})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUser(r.Context(), ClaimsFrom(r.Context()).UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, r, apperrors.NewNotFoundError("User", ""))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}
