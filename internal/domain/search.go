package domain

import "time"

// SearchQuery describes one air-shopping request to the distribution API.
type SearchQuery struct {
	Origin      string
	Destination string
	Departure   time.Time
	Cabin       string // economy|premium_economy|business|first, empty = any
	Passengers  int
}

// SearchMeta accompanies every normalized result. IsFallback marks a result
// produced from a structurally unusable response; Error carries the reason.
type SearchMeta struct {
	Total      int    `json:"total"`
	Currency   string `json:"currency,omitempty"`
	IsFallback bool   `json:"isFallbackData"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
}

// SearchResult is the normalizer output: the surviving offers in input order
// plus metadata. Meta.Total always equals len(Offers).
type SearchResult struct {
	Offers []FlightOffer `json:"flights"`
	Meta   SearchMeta    `json:"meta"`
}

// SearchSnapshot is a persisted search run.
type SearchSnapshot struct {
	ID          string
	Origin      string
	Destination string
	Departure   time.Time
	Cabin       string
	Currency    string
	Total       int
	IsFallback  bool
	CreatedAt   *time.Time
	RawJSON     []byte // full vendor response for replay/debugging
}

type OffersQuery struct {
	Limit int
}
