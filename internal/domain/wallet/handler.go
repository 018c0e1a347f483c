package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/middleware"
	"github.com/breakhouse/breakhouse-api/internal/pkg/response"
	"github.com/breakhouse/breakhouse-api/internal/pkg/validator"
)

// Handler handles wallet HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates wallet handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MoveRequest for deposit and withdraw
type MoveRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// WalletResponse is the balance plus recent history
type WalletResponse struct {
	Balance      int64          `json:"balance"`
	Transactions []*Transaction `json:"transactions"`
}

// GetWallet handles GET /wallet
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	txs, err := h.service.Transactions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, WalletResponse{Balance: balance, Transactions: txs})
}

// Deposit handles POST /wallet/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())

	tx, err := h.service.Deposit(r.Context(), userID, req.Amount)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			response.BadRequest(w, "Amount must be positive")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, tx)
}

// Withdraw handles POST /wallet/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())

	tx, err := h.service.Withdraw(r.Context(), userID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "Amount must be positive")
		case errors.Is(err, ErrInsufficientFunds):
			response.InsufficientFunds(w, "Balance does not cover this withdrawal")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, tx)
}

// BuyNow handles POST /listings/{id}/buy
func (h *Handler) BuyNow(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid listing ID")
		return
	}

	userID := middleware.GetUserID(r.Context())

	tx, err := h.service.BuyNow(r.Context(), userID, listingID)
	if err != nil {
		switch {
		case errors.Is(err, listing.ErrNotFound):
			response.NotFound(w, "Listing not found")
		case errors.Is(err, ErrNotDirectSale):
			response.UnprocessableEntity(w, "NOT_DIRECT_SALE", "Only direct-sale listings can be bought outright")
		case errors.Is(err, ErrOwnListing):
			response.UnprocessableEntity(w, "OWN_LISTING", "You cannot buy your own listing")
		case errors.Is(err, listing.ErrAlreadySold):
			response.Conflict(w, "ALREADY_SOLD", "Listing is already sold")
		case errors.Is(err, ErrInsufficientFunds):
			response.InsufficientFunds(w, "Balance does not cover this purchase")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, tx)
}

// Routes returns wallet router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetWallet)
		r.Post("/deposit", h.Deposit)
		r.Post("/withdraw", h.Withdraw)
	})

	return r
}
