package listing

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/middleware"
	"github.com/breakhouse/breakhouse-api/internal/pkg/response"
	"github.com/breakhouse/breakhouse-api/internal/pkg/validator"
)

// Handler handles listing HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates listing handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Search handles GET /listings
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	scope := ParseScope(r)
	filter := ParseFilterState(r)
	sortBy := ParseSort(r)

	listings, err := h.service.Search(r.Context(), scope, filter, sortBy)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponseList(listings))
}

// Create handles POST /listings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sellerID := middleware.GetUserID(r.Context())

	l, err := h.service.Create(r.Context(), sellerID, &req)
	if err != nil {
		if errors.Is(err, ErrInvalidBreakConfig) {
			response.UnprocessableEntity(w, "INVALID_BREAK", "Break needs at least two target participants")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, ToResponse(l))
}

// GetByID handles GET /listings/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	l, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "Listing not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponse(l))
}

// Update handles PATCH /listings/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	var req UpdateListingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	actorID := middleware.GetUserID(r.Context())

	l, err := h.service.UpdateFields(r.Context(), actorID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "Listing not found")
		case errors.Is(err, ErrForbidden):
			response.Forbidden(w, "Only the seller can edit this listing")
		case errors.Is(err, ErrAlreadySold):
			response.Conflict(w, "ALREADY_SOLD", "Sold listings cannot be edited")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, ToResponse(l))
}

// MyListings handles GET /listings/mine
func (h *Handler) MyListings(w http.ResponseWriter, r *http.Request) {
	sellerID := middleware.GetUserID(r.Context())

	listings, err := h.service.ListBySeller(r.Context(), sellerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, ToResponseList(listings))
}

// Routes returns listing router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Search)
	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/mine", h.MyListings)
		r.Patch("/{id}", h.Update)
	})

	return r
}
