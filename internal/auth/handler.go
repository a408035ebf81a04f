package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
)

const maxJSONBodyBytes = 1 << 20

// CookieConfig describes the refresh token cookie. Path scopes the cookie to
// the auth routes so browsers never attach it anywhere else.
type CookieConfig struct {
	Name string
	Path string
}

type Handler struct {
	service *Service
	cookie  CookieConfig
}

func NewHandler(service *Service, cookie CookieConfig) *Handler {
	return &Handler{service: service, cookie: cookie}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and, on success, returns the access token in the
// body and the refresh token as an HTTP-only secure cookie. No cookie is set
// on failure.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Password = strings.TrimSpace(body.Password)
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to login")
		}
		return
	}

	http.SetCookie(w, h.refreshCookie(session.RefreshToken, session.RefreshMaxAge))
	writeJSON(w, http.StatusOK, session)
}

// Refresh reads the refresh cookie and answers with a fresh access token. The
// cookie itself is left untouched in every outcome.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Refresh(r.Context(), h.cookieValue(r))
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingRefreshToken):
			writeError(w, http.StatusUnauthorized, "refresh token is missing")
		case errors.Is(err, ErrUnknownRefreshToken):
			writeError(w, http.StatusForbidden, "refresh token is not recognized")
		case errors.Is(err, ErrExpiredRefreshToken):
			writeError(w, http.StatusForbidden, "refresh token has expired, please sign in again")
		case errors.Is(err, ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "failed to refresh token")
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Logout invalidates every session for the cookie's owner and always clears
// the cookie, whether or not a matching token existed.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.service.Logout(r.Context(), h.cookieValue(r))

	// MaxAge -1 serializes as Max-Age=0, which tells the browser to drop
	// the cookie immediately.
	http.SetCookie(w, h.refreshCookie("", -1))

	if err != nil {
		if errors.Is(err, ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "service unavailable, retry later")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to logout")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) cookieValue(r *http.Request) string {
	cookie, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookie.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
