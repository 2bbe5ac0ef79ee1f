// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flight_shop/internal/app"
	"flight_shop/internal/domain"
)

type Handlers struct{ S *app.SearchService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/search", h.search)
	s.mux.Get("/v1/searches/{id}", h.getSearch)
	s.mux.Get("/v1/searches/{id}/offers", h.listOffers)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSONWithETag(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// parseSearchQuery validates /v1/search parameters. Airport codes are
// three-letter IATA; the date is a future-or-today yyyy-mm-dd day.
func parseSearchQuery(r *http.Request) (domain.SearchQuery, string) {
	q := domain.SearchQuery{
		Origin:      strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("origin"))),
		Destination: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("destination"))),
		Cabin:       strings.ToLower(strings.TrimSpace(r.URL.Query().Get("cabin"))),
		Passengers:  1,
	}
	if len(q.Origin) != 3 || len(q.Destination) != 3 {
		return q, "origin and destination must be 3-letter airport codes"
	}
	if q.Origin == q.Destination {
		return q, "origin and destination must differ"
	}
	dep, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		return q, "date must be yyyy-mm-dd"
	}
	q.Departure = dep
	if ps := r.URL.Query().Get("passengers"); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil || n < 1 || n > 9 {
			return q, "passengers must be an integer between 1 and 9"
		}
		q.Passengers = n
	}
	switch q.Cabin {
	case "", "economy", "premium_economy", "business", "first":
	default:
		return q, "cabin must be economy, premium_economy, business or first"
	}
	return q, ""
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	q, bad := parseSearchQuery(r)
	if bad != "" {
		writeProblem(w, http.StatusBadRequest, "Invalid query", bad)
		return
	}

	res, err := h.S.Search(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Str("origin", q.Origin).Str("destination", q.Destination).Msg("search failed")
		writeProblem(w, http.StatusBadGateway, "Upstream failure", "flight search is temporarily unavailable")
		return
	}
	writeJSONWithETag(w, r, res)
}

func (h *Handlers) getSearch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := h.S.GetSearch(r.Context(), id)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "search not found")
		return
	}

	resp := struct {
		ID          string `json:"id"`
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
		Departure   string `json:"departure"`
		Cabin       string `json:"cabin,omitempty"`
		Currency    string `json:"currency,omitempty"`
		Total       int    `json:"total"`
		IsFallback  bool   `json:"isFallbackData"`
		CreatedAt   string `json:"createdAt,omitempty"`
	}{
		ID:          snap.ID,
		Origin:      snap.Origin,
		Destination: snap.Destination,
		Departure:   snap.Departure.Format("2006-01-02"),
		Cabin:       snap.Cabin,
		Currency:    snap.Currency,
		Total:       snap.Total,
		IsFallback:  snap.IsFallback,
	}
	if snap.CreatedAt != nil {
		resp.CreatedAt = snap.CreatedAt.UTC().Format(time.RFC3339)
	}
	writeJSONWithETag(w, r, resp)
}

func (h *Handlers) listOffers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}

	offers, err := h.S.ListOffers(r.Context(), id, domain.OffersQuery{Limit: limit})
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "offers not found")
		return
	}
	writeJSONWithETag(w, r, struct {
		Flights []domain.FlightOffer `json:"flights"`
		Total   int                  `json:"total"`
	}{Flights: offers, Total: len(offers)})
}
