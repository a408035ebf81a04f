package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"findspot-server/internal/auth"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

const maxJSONBodyBytes = 1 << 20

// SessionRevoker kills every refresh token for a user. Satisfied by the auth
// store; account deletion must log the user out everywhere.
type SessionRevoker interface {
	DeleteByUser(ctx context.Context, userID string) error
}

type Handler struct {
	repo     *Repository
	sessions SessionRevoker
}

func NewHandler(repo *Repository, sessions SessionRevoker) *Handler {
	return &Handler{repo: repo, sessions: sessions}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Register creates an account. It never issues tokens; the client logs in
// afterwards.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body registerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	body.Username = strings.TrimSpace(strings.ToLower(body.Username))
	body.Password = strings.TrimSpace(body.Password)
	body.FullName = strings.TrimSpace(body.FullName)
	body.Email = strings.TrimSpace(body.Email)
	body.Phone = strings.TrimSpace(body.Phone)

	if !usernameRegex.MatchString(body.Username) {
		writeError(w, http.StatusBadRequest, "username format is invalid")
		return
	}
	if len(body.Password) < 8 || len(body.Password) > 200 {
		writeError(w, http.StatusBadRequest, "password must be between 8 and 200 characters")
		return
	}
	if !utf8.ValidString(body.FullName) || len(body.FullName) > 100 {
		writeError(w, http.StatusBadRequest, "full name is invalid")
		return
	}
	if body.Email == "" || !strings.Contains(body.Email, "@") || len(body.Email) > 254 {
		writeError(w, http.StatusBadRequest, "email is invalid")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	_, err = h.repo.Create(r.Context(), NewUser{
		Username:     body.Username,
		FullName:     body.FullName,
		Email:        body.Email,
		Phone:        body.Phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			writeError(w, http.StatusBadRequest, "username is already taken")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "User has been registered successfully"})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.repo.Stats(r.Context(), user.ID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profileOf(user, stats))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input ProfileUpdate
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = strings.TrimSpace(input.Email)
	if input.FullName == "" || len(input.FullName) > 100 {
		writeError(w, http.StatusBadRequest, "full name is invalid")
		return
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") || len(input.Email) > 254 {
		writeError(w, http.StatusBadRequest, "email is invalid")
		return
	}
	if len(input.Bio) > 1000 || len(input.Location) > 150 || len(input.AvatarURL) > 500 {
		writeError(w, http.StatusBadRequest, "profile fields are too long")
		return
	}

	updated, err := h.repo.UpdateProfile(r.Context(), user.ID, input)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	stats, err := h.repo.Stats(r.Context(), user.ID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profileOf(updated, stats))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body changePasswordRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if len(body.NewPassword) < 8 || len(body.NewPassword) > 200 {
		writeError(w, http.StatusBadRequest, "new password must be between 8 and 200 characters")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	if err := h.repo.UpdatePassword(r.Context(), user.ID, string(hash)); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to change password")
		return
	}

	// A password change ends every other session for the account.
	if err := h.sessions.DeleteByUser(r.Context(), user.ID); err != nil {
		sentry.CaptureException(err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	stats, err := h.repo.Stats(r.Context(), user.ID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	settings, err := h.repo.Settings(r.Context(), user.ID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input NotificationSettings
	if !decodeSettings(w, r, &input) {
		return
	}

	if err := h.repo.UpdateNotificationSettings(r.Context(), user.ID, input); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, input)
}

func (h *Handler) UpdatePrivacySettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input PrivacySettings
	if !decodeSettings(w, r, &input) {
		return
	}

	if err := h.repo.UpdatePrivacySettings(r.Context(), user.ID, input); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, input)
}

func (h *Handler) UpdateDisplaySettings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input DisplaySettings
	if !decodeSettings(w, r, &input) {
		return
	}

	if input.Theme != "light" && input.Theme != "dark" {
		writeError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}
	if len(input.Language) != 2 {
		writeError(w, http.StatusBadRequest, "language must be a two-letter code")
		return
	}

	if err := h.repo.UpdateDisplaySettings(r.Context(), user.ID, input); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	writeJSON(w, http.StatusOK, input)
}

func (h *Handler) SaveItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	itemID := r.PathValue("id")
	if _, err := uuid.Parse(itemID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.repo.SaveItem(r.Context(), user.ID, itemID); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to save item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Item saved"})
}

func (h *Handler) SavedItems(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	ids, err := h.repo.SavedItemIDs(r.Context(), user.ID)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load saved items")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"item_ids": ids})
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.sessions.DeleteByUser(r.Context(), user.ID); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	if err := h.repo.DeleteAccount(r.Context(), user.ID); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// caller resolves the gate-bound subject to a full user row. The gate runs
// before every protected route, so a missing subject means a wiring bug, not
// a client mistake; it still answers 401 rather than panicking.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (User, bool) {
	subject, ok := auth.SubjectFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return User{}, false
	}

	user, err := h.repo.GetByUsername(r.Context(), subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return User{}, false
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to resolve user")
		return User{}, false
	}

	return user, true
}

func profileOf(user User, stats Stats) Profile {
	return Profile{
		Name:      user.FullName,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		JoinDate:  user.JoinDate,
		Location:  user.Location,
		Bio:       user.Bio,
		AvatarURL: user.AvatarURL,
		Stats:     stats,
	}
}

func decodeSettings(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
