package bid

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/middleware"
	"github.com/breakhouse/breakhouse-api/internal/pkg/response"
	"github.com/breakhouse/breakhouse-api/internal/pkg/validator"
)

// Handler handles bid HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates bid handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PlaceBidRequest for POST /listings/{id}/bids
type PlaceBidRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// PlaceBid handles POST /listings/{id}/bids
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	var req PlaceBidRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	bidderID := middleware.GetUserID(r.Context())

	b, err := h.service.PlaceBid(r.Context(), listingID, bidderID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrNotFound):
			response.NotFound(w, "Listing not found")
		case errors.Is(err, ErrNotAuction):
			response.UnprocessableEntity(w, "NOT_AUCTION", "Listing is not an auction")
		case errors.Is(err, ErrListingClosed):
			response.Conflict(w, "AUCTION_CLOSED", "Auction is closed")
		case errors.Is(err, ErrBidTooLow):
			response.UnprocessableEntity(w, "BID_TOO_LOW", "Bid must exceed the current high bid")
		case errors.Is(err, ErrInsufficientFunds):
			response.InsufficientFunds(w, "Balance does not cover this bid")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, b)
}

// ListByListing handles GET /listings/{id}/bids
func (h *Handler) ListByListing(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	bids, err := h.service.BidsByListing(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			response.NotFound(w, "Listing not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, bids)
}

