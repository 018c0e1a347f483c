package breaks

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/middleware"
	"github.com/breakhouse/breakhouse-api/internal/pkg/response"
	"github.com/breakhouse/breakhouse-api/internal/pkg/storage"
	"github.com/breakhouse/breakhouse-api/internal/pkg/validator"
)

// Handler handles break HTTP requests
type Handler struct {
	service *Service
	storage storage.Storage
}

// NewHandler creates break handler
func NewHandler(service *Service, store storage.Storage) *Handler {
	return &Handler{service: service, storage: store}
}

// ScheduleRequest for POST /breaks/{id}/schedule
type ScheduleRequest struct {
	LiveAt   time.Time `json:"live_at" validate:"required"`
	LiveLink string    `json:"live_link" validate:"required,url,max=500"`
}

// CompleteRequest for POST /breaks/{id}/complete
type CompleteRequest struct {
	MediaKeys []string `json:"media_keys" validate:"max=50,dive,max=300"`
	Notes     string   `json:"notes" validate:"max=5000"`
}

// PresignRequest for POST /breaks/{id}/media/presign
type PresignRequest struct {
	Filename    string `json:"filename" validate:"required,max=200"`
	ContentType string `json:"content_type" validate:"required,max=100"`
}

// PresignResponse carries the direct-upload URL
type PresignResponse struct {
	UploadURL string `json:"upload_url"`
	ObjectKey string `json:"object_key"`
}

// WaitlistPositionResponse for GET /breaks/{id}/waitlist/position
type WaitlistPositionResponse struct {
	Position int `json:"position"`
}

func (h *Handler) listingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeBreakError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listing.ErrNotFound):
		response.NotFound(w, "Listing not found")
	case errors.Is(err, ErrNotBreak):
		response.UnprocessableEntity(w, "NOT_BREAK", "Listing is not a timed break")
	case errors.Is(err, ErrBreakClosed):
		response.Conflict(w, "BREAK_CLOSED", "Break is not open for entries")
	case errors.Is(err, ErrBreakFull):
		response.Conflict(w, "BREAK_FULL", "Break is at capacity")
	case errors.Is(err, ErrBreakNotFull):
		response.Conflict(w, "BREAK_NOT_FULL", "Waitlist opens when the break is full")
	case errors.Is(err, ErrEntryLimit):
		response.Conflict(w, "ENTRY_LIMIT", "Per-user entry limit reached")
	case errors.Is(err, ErrEntryNotFound):
		response.NotFound(w, "Entry not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(w, "INVALID_TRANSITION", "Break is not in the right state for that")
	case errors.Is(err, ErrInvalidSchedule):
		response.UnprocessableEntity(w, "INVALID_SCHEDULE", "Scheduled time must be in the future")
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Not allowed to manage this break")
	case errors.Is(err, ErrNotWaitlisted):
		response.NotFound(w, "Not on the waitlist")
	case errors.Is(err, ErrAlreadyWaitlisted):
		response.Conflict(w, "ALREADY_WAITLISTED", "Already on the waitlist")
	case errors.Is(err, ErrInsufficientFunds):
		response.InsufficientFunds(w, "Balance does not cover the entry fee")
	default:
		response.InternalError(w)
	}
}

// Join handles POST /breaks/{id}/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	e, err := h.service.Join(r.Context(), id, userID)
	if err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.Created(w, e)
}

// Entries handles GET /breaks/{id}/entries
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Entries(r.Context(), id)
	if err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.OK(w, entries)
}

// RemoveEntry handles DELETE /breaks/entries/{entryID}
func (h *Handler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := uuid.Parse(chi.URLParam(r, "entryID"))
	if err != nil {
		response.BadRequest(w, "Invalid entry ID")
		return
	}

	actorID := middleware.GetUserID(r.Context())

	if err := h.service.RemoveEntry(r.Context(), actorID, entryID); err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.NoContent(w)
}

// Schedule handles POST /breaks/{id}/schedule
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req ScheduleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	hostID := middleware.GetUserID(r.Context())

	if err := h.service.Schedule(r.Context(), hostID, id, req.LiveAt, req.LiveLink); err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": string(listing.BreakScheduled)})
}

// Start handles POST /breaks/{id}/start
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	hostID := middleware.GetUserID(r.Context())

	if err := h.service.Start(r.Context(), hostID, id); err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": string(listing.BreakLive)})
}

// Complete handles POST /breaks/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req CompleteRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	hostID := middleware.GetUserID(r.Context())

	if err := h.service.Complete(r.Context(), hostID, id, req.MediaKeys, req.Notes); err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": string(listing.BreakCompleted)})
}

// Cancel handles POST /breaks/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(r.Context())

	if err := h.service.Cancel(r.Context(), actorID, id); err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.OK(w, map[string]string{"status": string(listing.BreakCancelled)})
}

// JoinWaitlist handles POST /breaks/{id}/waitlist
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	entry, err := h.service.JoinWaitlist(r.Context(), id, userID)
	if err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.Created(w, entry)
}

// WaitlistPosition handles GET /breaks/{id}/waitlist/position
func (h *Handler) WaitlistPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	userID := middleware.GetUserID(r.Context())

	pos, err := h.service.WaitlistPosition(r.Context(), id, userID)
	if err != nil {
		h.writeBreakError(w, err)
		return
	}

	response.OK(w, WaitlistPositionResponse{Position: pos})
}

// PresignMedia handles POST /breaks/{id}/media/presign. Host only: mints a
// direct-upload URL for results media.
func (h *Handler) PresignMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req PresignRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	hostID := middleware.GetUserID(r.Context())

	l, err := h.service.getBreak(r.Context(), id)
	if err != nil {
		h.writeBreakError(w, err)
		return
	}
	if l.Seller.ID != hostID {
		response.Forbidden(w, "Only the host can upload results media")
		return
	}

	key := fmt.Sprintf("breaks/%s/results/%s%s", id, uuid.New(), path.Ext(req.Filename))
	url, err := h.storage.PresignPut(r.Context(), key, req.ContentType, 15*time.Minute)
	if err != nil {
		if errors.Is(err, storage.ErrPresignUnsupported) {
			response.UnprocessableEntity(w, "PRESIGN_UNSUPPORTED", "Storage backend does not support direct uploads")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, PresignResponse{UploadURL: url, ObjectKey: key})
}

// Routes returns break router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}/entries", h.Entries)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/{id}/join", h.Join)
		r.Delete("/entries/{entryID}", h.RemoveEntry)
		r.Post("/{id}/schedule", h.Schedule)
		r.Post("/{id}/start", h.Start)
		r.Post("/{id}/complete", h.Complete)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/waitlist", h.JoinWaitlist)
		r.Get("/{id}/waitlist/position", h.WaitlistPosition)
		r.Post("/{id}/media/presign", h.PresignMedia)
	})

	return r
}
