package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

type OfferRepository interface {
	// Write paths
	SaveSearch(ctx context.Context, s SearchSnapshot) error
	SaveOffers(ctx context.Context, searchID string, offers []FlightOffer) error
	LogMiss(ctx context.Context, q SearchQuery, status int, reason string) error

	// Read paths
	GetSearch(ctx context.Context, id string) (SearchSnapshot, error)
	ListOffers(ctx context.Context, searchID string, q OffersQuery) ([]FlightOffer, error)
}

type ShoppingClient interface {
	AirShopping(ctx context.Context, q SearchQuery) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
