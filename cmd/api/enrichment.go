package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/breakhouse/breakhouse-api/internal/pkg/cardinfo"
	"github.com/breakhouse/breakhouse-api/internal/pkg/geo"
	"github.com/breakhouse/breakhouse-api/internal/pkg/response"
)

// enrichmentHandler serves the read-only card and location lookups. These
// never touch engine state.
type enrichmentHandler struct {
	cards cardinfo.Lookup
	geo   geo.Lookup
}

func newEnrichmentHandler(cards cardinfo.Lookup, geoLookup geo.Lookup) *enrichmentHandler {
	return &enrichmentHandler{cards: cards, geo: geoLookup}
}

// LookupCard handles GET /cards/{id}
func (h *enrichmentHandler) LookupCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Missing card ID")
		return
	}

	card, err := h.cards.LookupCardByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusBadGateway, "LOOKUP_FAILED", "Card lookup unavailable")
		return
	}
	if card == nil {
		response.NotFound(w, "Card not found")
		return
	}

	response.OK(w, card)
}

// LookupLocation handles GET /geo?q=
func (h *enrichmentHandler) LookupLocation(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		response.BadRequest(w, "Missing query")
		return
	}

	loc, err := h.geo.LookupLocation(r.Context(), q)
	if err != nil {
		response.Error(w, http.StatusBadGateway, "LOOKUP_FAILED", "Location lookup unavailable")
		return
	}
	if loc == nil {
		response.NotFound(w, "Location not found")
		return
	}

	response.OK(w, loc)
}
