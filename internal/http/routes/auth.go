package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shortssprint/shortssprint/internal/api"
	"github.com/shortssprint/shortssprint/internal/auth"
	appmw "github.com/shortssprint/shortssprint/internal/http/middleware"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	switch {
	case req.Username == "":
		s.badRequest(w, "username is required")
		return
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		s.badRequest(w, "a valid email is required")
		return
	case len(req.Password) < 8:
		s.badRequest(w, "password must be at least 8 characters")
		return
	}
	if !s.Google.DomainAllowed(req.Email) {
		s.writeError(w, api.Errorf(api.KindAuthFailure, "email domain not authorized for %s", req.Email))
		return
	}

	users, err := s.Reader.Credentials(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, req.Username) || strings.EqualFold(u.Email, req.Email) {
			s.badRequest(w, "username or email already registered")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Writer.AppendUser(r.Context(), req.Username, req.Email, hash); err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.Tokens.Issue(auth.Identity{Username: req.Username, Email: req.Email})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user": map[string]string{
			"username": req.Username,
			"email":    req.Email,
		},
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin authenticates against the credentials tab. The username
// field accepts either the username or the email address.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.badRequest(w, "username and password are required")
		return
	}

	users, err := s.Reader.Credentials(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	for _, u := range users {
		if !strings.EqualFold(u.Username, req.Username) && !strings.EqualFold(u.Email, req.Username) {
			continue
		}
		if !auth.CheckPassword(u.Password, req.Password) {
			break
		}
		if u.Email != "" && !s.Google.DomainAllowed(u.Email) {
			s.writeError(w, api.Errorf(api.KindAuthFailure, "email domain not authorized for %s", u.Email))
			return
		}

		token, terr := s.Tokens.Issue(auth.Identity{Username: u.Username, Email: u.Email})
		if terr != nil {
			s.writeError(w, terr)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user": map[string]string{
				"username": u.Username,
				"email":    u.Email,
			},
		})
		return
	}

	s.writeError(w, api.E(api.KindAuthFailure, "invalid username or password"))
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
		s.badRequest(w, "credential is required")
		return
	}

	id, err := s.Google.Verify(r.Context(), req.Credential)
	if err != nil {
		s.writeError(w, err)
		return
	}

	token, err := s.Tokens.Issue(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]string{
			"username": id.Username,
			"email":    id.Email,
		},
	})
}

func (s *Server) handleAllowedDomains(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"domains": s.Domains,
	})
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	id, ok := appmw.IdentityFrom(r.Context())
	if !ok {
		s.writeError(w, api.E(api.KindAuthFailure, "not authenticated"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":  "token is valid",
		"username": id.Username,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := appmw.IdentityFrom(r.Context())
	if !ok {
		s.writeError(w, api.E(api.KindAuthFailure, "not authenticated"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{
			"username": id.Username,
			"email":    id.Email,
		},
	})
}
