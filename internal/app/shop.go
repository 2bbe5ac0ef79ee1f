package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"flight_shop/internal/domain"
	"flight_shop/internal/normalize"
)

// ShopService runs one upstream shopping call end to end: fetch, normalize,
// snapshot to storage, invalidate the route cache.
type ShopService struct {
	client domain.ShoppingClient
	repo   domain.OfferRepository
	cache  domain.Cache
}

func NewShopService(c domain.ShoppingClient, r domain.OfferRepository, cache domain.Cache) *ShopService {
	return &ShopService{client: c, repo: r, cache: cache}
}

// Shop fetches and normalizes one search. Upstream 404/401/403 are recorded
// as misses and degrade to a fallback result instead of failing the caller;
// anything else (network, 5xx after retries, JSON) bubbles up.
func (s *ShopService) Shop(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	raw, err := s.client.AirShopping(ctx, q)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			_ = s.repo.LogMiss(ctx, q, 404, "no offers for route")
		case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
			_ = s.repo.LogMiss(ctx, q, 403, "credentials rejected")
		default:
			return domain.SearchResult{}, err
		}
		if s.cache != nil {
			_ = s.cache.Del(ctx, searchKey(q))
		}
		return domain.SearchResult{
			Meta: domain.SearchMeta{IsFallback: true, Error: err.Error(), Message: "upstream rejected the search"},
		}, nil
	}

	result := normalize.Normalize(raw)

	snap := domain.SearchSnapshot{
		ID:          uuid.NewString(),
		Origin:      q.Origin,
		Destination: q.Destination,
		Departure:   q.Departure,
		Cabin:       q.Cabin,
		Currency:    result.Meta.Currency,
		Total:       result.Meta.Total,
		IsFallback:  result.Meta.IsFallback,
	}
	if rawJSON, merr := json.Marshal(raw); merr == nil {
		snap.RawJSON = rawJSON
	} else {
		log.Error().Err(merr).Msg("marshal raw shopping response failed")
	}

	// Snapshot first to satisfy the FK for offers.
	if err := s.repo.SaveSearch(ctx, snap); err != nil {
		return domain.SearchResult{}, fmt.Errorf("save search snapshot: %w", err)
	}
	if len(result.Offers) > 0 {
		if err := s.repo.SaveOffers(ctx, snap.ID, result.Offers); err != nil {
			return domain.SearchResult{}, fmt.Errorf("save offers for %s: %w", snap.ID, err)
		}
	}

	// Fresh data supersedes whatever the route cache held.
	if s.cache != nil {
		_ = s.cache.Del(ctx, searchKey(q))
	}
	return result, nil
}

func searchKey(q domain.SearchQuery) string {
	return fmt.Sprintf("search:%s:%s:%s:%s",
		strings.ToUpper(q.Origin),
		strings.ToUpper(q.Destination),
		q.Departure.Format("2006-01-02"),
		strings.ToLower(q.Cabin),
	)
}
