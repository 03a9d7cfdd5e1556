package internal

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type sessionInfo struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expiresAt,omitempty"`
}

func infoFor(s *auth.Session) sessionInfo {
	info := sessionInfo{Authenticated: s.Authenticated()}
	if info.Authenticated {
		info.User = s.User
		if !s.ExpiresAt.IsZero() {
			exp := s.ExpiresAt
			info.ExpiresAt = &exp
		}
	}
	return info
}

func isJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// loginStatus reports whether the browser already holds a session
func (s *Server) loginStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Store.Load(r)
	if err != nil {
		sess = &auth.Session{}
	}
	writeJSON(w, http.StatusOK, infoFor(sess))
}

// loginUser exchanges credentials with the products API and stores the
// returned token in the session cookie
func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Code: "INVALID_BODY"})
			return
		}
	} else {
		req.Username = r.FormValue("username")
		req.Password = r.FormValue("password")
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Username and password are required", Code: "VALIDATION_ERROR"})
		return
	}

	resp, err := s.Backend.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status, msg := client.HTTPStatus(err), "Login failed"
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		if errors.Is(err, client.ErrAuth) {
			status = http.StatusUnauthorized
		}
		s.Logger.Info("login rejected", zap.String("username", req.Username), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: msg, Code: client.Code(err)})
		return
	}

	sess := auth.NewSession(resp.Token, resp.User)
	if err := s.Store.Save(w, r, sess); err != nil {
		s.Logger.Error("session save failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Could not start session", Code: "SESSION_ERROR"})
		return
	}
	s.Logger.Info("user logged in", zap.String("username", req.Username))

	if isJSON(r) {
		writeJSON(w, http.StatusOK, infoFor(sess))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logoutUser drops the token and cached user
func (s *Server) logoutUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Clear(w, r); err != nil {
		s.Logger.Error("session clear failed", zap.Error(err))
	}
	if isJSON(r) {
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
		return
	}
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

// getUserProfile returns the user blob cached at login
func (s *Server) getUserProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoFor(auth.SessionFromContext(r.Context())))
}
