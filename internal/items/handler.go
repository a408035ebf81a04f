package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"findspot-server/internal/auth"
)

const maxJSONBodyBytes = 1 << 20

// UserResolver maps the gate-bound username to the owning user id. Satisfied
// by the users repository.
type UserResolver interface {
	IDByUsername(ctx context.Context, username string) (string, error)
}

type Handler struct {
	repo  *Repository
	users UserResolver
}

func NewHandler(repo *Repository, users UserResolver) *Handler {
	return &Handler{repo: repo, users: users}
}

func (h *Handler) ReportLost(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, TypeLost)
}

func (h *Handler) ReportFound(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, TypeFound)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request, itemType string) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	input, ok := parseReport(w, r)
	if !ok {
		return
	}

	if itemType == TypeFound && input.ContactPreference == "" {
		input.ContactPreference = "email"
	}

	item, err := h.repo.Create(r.Context(), callerID, itemType, input)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to report item")
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) ListLost(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, TypeLost)
}

func (h *Handler) ListFound(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, TypeFound)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, itemType string) {
	query := r.URL.Query()
	filter := Filter{
		Type:     itemType,
		Category: strings.TrimSpace(query.Get("category")),
		Location: strings.TrimSpace(query.Get("location")),
		Search:   strings.TrimSpace(query.Get("search")),
		Status:   StatusActive,
		Page:     intQuery(query.Get("page"), 0),
		Size:     intQuery(query.Get("size"), 20),
	}

	page, err := h.repo.List(r.Context(), filter)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	input, ok := parseReport(w, r)
	if !ok {
		return
	}

	item, err := h.repo.Update(r.Context(), id, callerID, input)
	if err != nil {
		h.writeRepoError(w, err, "failed to update item")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.repo.Delete(r.Context(), id, callerID); err != nil {
		h.writeRepoError(w, err, "failed to delete item")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	var body statusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	status := strings.ToUpper(strings.TrimSpace(body.Status))
	if status != StatusActive && status != StatusClaimed && status != StatusClosed {
		writeError(w, http.StatusBadRequest, "status must be ACTIVE, CLAIMED or CLOSED")
		return
	}

	item, err := h.repo.UpdateStatus(r.Context(), id, callerID, status)
	if err != nil {
		h.writeRepoError(w, err, "failed to update item status")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// ReopenItem puts a resolved item back on the active listings.
func (h *Handler) ReopenItem(w http.ResponseWriter, r *http.Request) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.repo.UpdateStatus(r.Context(), id, callerID, StatusActive)
	if err != nil {
		h.writeRepoError(w, err, "failed to reopen item")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Item reopened successfully",
		"item":    item,
	})
}

func (h *Handler) MyItems(w http.ResponseWriter, r *http.Request) {
	h.myItems(w, r, Filter{})
}

func (h *Handler) MyLost(w http.ResponseWriter, r *http.Request) {
	h.myItems(w, r, Filter{Type: TypeLost})
}

func (h *Handler) MyFound(w http.ResponseWriter, r *http.Request) {
	h.myItems(w, r, Filter{Type: TypeFound})
}

func (h *Handler) MyResolved(w http.ResponseWriter, r *http.Request) {
	h.myItems(w, r, Filter{Resolved: true})
}

func (h *Handler) myItems(w http.ResponseWriter, r *http.Request, filter Filter) {
	id, ok := h.callerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter.OwnerID = id
	filter.Page = intQuery(query.Get("page"), 0)
	filter.Size = intQuery(query.Get("size"), 20)

	page, err := h.repo.List(r.Context(), filter)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, ErrNotOwner):
		writeError(w, http.StatusForbidden, "you do not own this item")
	default:
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func parseReport(w http.ResponseWriter, r *http.Request) (ReportInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input ReportInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return ReportInput{}, false
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	input.Location = strings.TrimSpace(input.Location)
	input.Date = strings.TrimSpace(input.Date)

	if input.Title == "" || !utf8.ValidString(input.Title) || len(input.Title) > 150 {
		writeError(w, http.StatusBadRequest, "title is invalid")
		return ReportInput{}, false
	}
	if input.Category == "" || len(input.Category) > 50 {
		writeError(w, http.StatusBadRequest, "category is required")
		return ReportInput{}, false
	}
	if input.Location == "" || len(input.Location) > 150 {
		writeError(w, http.StatusBadRequest, "location is required")
		return ReportInput{}, false
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return ReportInput{}, false
	}
	if len(input.ShortDescription) > 500 || len(input.FullDescription) > 2000 {
		writeError(w, http.StatusBadRequest, "description is too long")
		return ReportInput{}, false
	}
	if len(input.Images) > 10 {
		writeError(w, http.StatusBadRequest, "too many images")
		return ReportInput{}, false
	}
	for _, image := range input.Images {
		if len(image) > 500 || !strings.HasPrefix(image, "http") {
			writeError(w, http.StatusBadRequest, "image urls must be http(s) links")
			return ReportInput{}, false
		}
	}
	switch input.ContactPreference {
	case "", "email", "phone", "both":
	default:
		writeError(w, http.StatusBadRequest, "contact preference must be email, phone or both")
		return ReportInput{}, false
	}

	return input, true
}

func (h *Handler) callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject, ok := auth.SubjectFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}

	id, err := h.users.IDByUsername(r.Context(), subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return "", false
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to resolve user")
		return "", false
	}

	return id, true
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
