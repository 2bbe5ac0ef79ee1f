package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flight_shop/internal/domain"
)

// SearchService serves searches cache-through: Redis first, then a live
// shopping run. Stored snapshots are read straight from the repository.
type SearchService struct {
	shop     *ShopService
	repo     domain.OfferRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewSearchService(shop *ShopService, r domain.OfferRepository, c domain.Cache, ttl time.Duration) *SearchService {
	return &SearchService{shop: shop, repo: r, cache: c, cacheTTL: ttl}
}

func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) (domain.SearchResult, error) {
	key := searchKey(q)
	var cached domain.SearchResult
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	result, err := s.shop.Shop(ctx, q)
	if err != nil {
		return domain.SearchResult{}, err
	}

	// Fallback results are not worth caching; the next caller should retry
	// the upstream.
	if !result.Meta.IsFallback {
		_ = s.cache.Set(ctx, key, result, int(s.cacheTTL.Seconds()))
	}
	return result, nil
}

func (s *SearchService) GetSearch(ctx context.Context, id string) (domain.SearchSnapshot, error) {
	return s.repo.GetSearch(ctx, id)
}

func (s *SearchService) ListOffers(ctx context.Context, searchID string, q domain.OffersQuery) ([]domain.FlightOffer, error) {
	key := fmt.Sprintf("offers:%s:%d", searchID, q.Limit)
	var out []domain.FlightOffer
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	offers, err := s.repo.ListOffers(ctx, searchID, q)
	if err != nil {
		return nil, err
	}

	// copy to avoid aliasing the repo's backing array through the cache
	cp := make([]domain.FlightOffer, len(offers))
	copy(cp, offers)

	// optional size guard
	if b, _ := json.Marshal(cp); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	}
	return cp, nil
}
