package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/breakhouse/breakhouse-api/internal/middleware"
	"github.com/breakhouse/breakhouse-api/internal/pkg/response"
	"github.com/breakhouse/breakhouse-api/internal/pkg/validator"
)

// Handler handles user HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates user handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpdateMeRequest for PATCH /users/me
type UpdateMeRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=2,max=60"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	Role        *string `json:"role" validate:"omitempty,role"`
}

// MeResponse is the identity snapshot returned by /users/me
type MeResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role"`
	Verified    bool   `json:"verified"`
	Balance     int64  `json:"balance"`
}

// GetMe handles GET /users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		if err == ErrNotFound {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, MeResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        string(u.Role),
		Verified:    u.Verified,
		Balance:     u.Balance,
	})
}

// UpdateMe handles PATCH /users/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateMeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	fields := UpdateFields{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}
	if req.Role != nil {
		role := Role(*req.Role)
		fields.Role = &role
	}

	if err := h.service.SetFields(r.Context(), userID, fields); err != nil {
		if err == ErrNotFound {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	h.GetMe(w, r)
}

// Routes returns user router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.GetMe)
		r.Patch("/me", h.UpdateMe)
	})

	return r
}
