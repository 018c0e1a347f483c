package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// The /listings mount coexists with the param routes registered next to it
// (/listings/{id}/bids, /listings/{id}/buy). Verifies chi dispatches each
// shape to the right handler instead of panicking on registration.
func TestListingRouteCoexistence(t *testing.T) {
	mark := func(label string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Handler", label)
			w.WriteHeader(http.StatusOK)
		}
	}

	listings := chi.NewRouter()
	listings.Get("/", mark("search"))
	listings.Get("/{id}", mark("detail"))

	root := chi.NewRouter()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.Fatalf("route registration panicked: %v", rec)
			}
		}()
		root.Mount("/listings", listings)
		root.Route("/listings/{id}/bids", func(r chi.Router) {
			r.Get("/", mark("bids"))
			r.Post("/", mark("place-bid"))
		})
		root.Route("/listings/{id}/buy", func(r chi.Router) {
			r.Post("/", mark("buy"))
		})
	}()

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/listings", "search"},
		{http.MethodGet, "/listings/7b0c", "detail"},
		{http.MethodGet, "/listings/7b0c/bids", "bids"},
		{http.MethodPost, "/listings/7b0c/bids", "place-bid"},
		{http.MethodPost, "/listings/7b0c/buy", "buy"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rr := httptest.NewRecorder()
		root.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d", tc.method, tc.path, rr.Code)
		}
		if got := rr.Header().Get("X-Handler"); got != tc.want {
			t.Fatalf("%s %s: routed to %q, expected %q", tc.method, tc.path, got, tc.want)
		}
	}
}
