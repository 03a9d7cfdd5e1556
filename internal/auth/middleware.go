package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LoginPath is where unauthenticated users are sent
const LoginPath = "/login"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Redirect string `json:"redirect,omitempty"`
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, response ErrorResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// sendTokenExpirationWarning adds a warning header when token expires soon
func sendTokenExpirationWarning(w http.ResponseWriter, expiresAt time.Time) {
	timeUntilExpiry := time.Until(expiresAt)
	if timeUntilExpiry <= time.Hour && timeUntilExpiry > 0 {
		w.Header().Set("X-Token-Expires-At", expiresAt.Format(time.RFC3339))
		w.Header().Set("X-Token-Expires-In", timeUntilExpiry.Round(time.Second).String())
	}
}

// validateTokenFormat performs basic JWT shape checks
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return errors.New("token cannot be empty")
	}
	if len(tokenString) > 8192 {
		return errors.New("token size exceeds maximum allowed")
	}
	if len(strings.Split(tokenString, ".")) != 3 {
		return errors.New("invalid JWT token format")
	}
	return nil
}

// wantsJSON separates API callers from page navigations
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Guard gates protected routes on a stored session token and performs the
// logout-and-redirect when the products API rejects the token.
type Guard struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewGuard creates a guard over the session store
func NewGuard(store Store, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{store: store, logger: logger, now: time.Now}
}

// Middleware redirects to the login view when the request has no session
// token and otherwise places the session in the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := g.store.Load(r)
		if err != nil {
			g.logger.Warn("session load failed", zap.Error(err))
			s = &Session{}
		}

		if !s.Authenticated() {
			g.redirect(w, r, "Authentication required", "SESSION_REQUIRED")
			return
		}
		if s.Expired(g.now()) {
			g.Unauthorized(w, r)
			return
		}

		if !s.ExpiresAt.IsZero() {
			sendTokenExpirationWarning(w, s.ExpiresAt)
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Unauthorized clears the stored token and user identity and sends the
// client to the login view. It is terminal for the request.
func (g *Guard) Unauthorized(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Clear(w, r); err != nil {
		g.logger.Error("session clear failed", zap.Error(err))
	}
	g.redirect(w, r, "Session expired, please sign in again", "SESSION_EXPIRED")
}

func (g *Guard) redirect(w http.ResponseWriter, r *http.Request, message, code string) {
	if wantsJSON(r) {
		sendErrorResponse(w, ErrorResponse{Error: message, Code: code, Redirect: LoginPath}, http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}
