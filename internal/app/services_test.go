package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"flight_shop/internal/app"
	"flight_shop/internal/domain"
)

// ---- fakes ----

type fakeClient struct {
	raw   map[string]any
	err   error
	calls int
}

func (f *fakeClient) AirShopping(ctx context.Context, q domain.SearchQuery) (map[string]any, error) {
	f.calls++
	return f.raw, f.err
}

type loggedMiss struct {
	q      domain.SearchQuery
	status int
	reason string
}

type fakeRepo struct {
	snaps  []domain.SearchSnapshot
	offers map[string][]domain.FlightOffer
	misses []loggedMiss

	saveSearchErr error
	saveOffersErr error
	listed        []domain.FlightOffer
}

func (f *fakeRepo) SaveSearch(ctx context.Context, s domain.SearchSnapshot) error {
	if f.saveSearchErr != nil {
		return f.saveSearchErr
	}
	f.snaps = append(f.snaps, s)
	return nil
}

func (f *fakeRepo) SaveOffers(ctx context.Context, searchID string, offers []domain.FlightOffer) error {
	if f.saveOffersErr != nil {
		return f.saveOffersErr
	}
	if f.offers == nil {
		f.offers = map[string][]domain.FlightOffer{}
	}
	f.offers[searchID] = offers
	return nil
}

func (f *fakeRepo) LogMiss(ctx context.Context, q domain.SearchQuery, status int, reason string) error {
	f.misses = append(f.misses, loggedMiss{q, status, reason})
	return nil
}

func (f *fakeRepo) GetSearch(ctx context.Context, id string) (domain.SearchSnapshot, error) {
	for _, s := range f.snaps {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.SearchSnapshot{}, domain.ErrNotFound
}

func (f *fakeRepo) ListOffers(ctx context.Context, searchID string, q domain.OffersQuery) ([]domain.FlightOffer, error) {
	return f.listed, nil
}

// fakeCache JSON round-trips values the way the redis adapter does, so
// aliasing bugs show up in tests too.
type fakeCache struct {
	store map[string][]byte
	sets  int
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = b
	c.sets++
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

// shoppableResponse is the smallest payload the normalizer accepts: one offer
// resolving to one segment.
func shoppableResponse() map[string]any {
	return map[string]any{
		"OffersGroup": map[string]any{
			"AirlineOffers": []any{
				map[string]any{"AirlineOffer": []any{
					map[string]any{
						"OfferID": map[string]any{"value": "OFFER1"},
						"TotalPrice": map[string]any{
							"DetailCurrencyPrice": map[string]any{
								"Total": map[string]any{"value": 300.0, "Code": "USD"},
							},
						},
						"FlightsOverview": map[string]any{
							"FlightRef": []any{map[string]any{"value": "FLT1"}},
						},
					},
				}},
			},
		},
		"DataLists": map[string]any{
			"FlightSegmentList": map[string]any{
				"FlightSegment": []any{
					map[string]any{
						"SegmentKey": "SEG1",
						"Departure":  map[string]any{"AirportCode": map[string]any{"value": "JFK"}},
						"Arrival":    map[string]any{"AirportCode": map[string]any{"value": "LHR"}},
						"MarketingCarrier": map[string]any{
							"AirlineID": map[string]any{"value": "BA"},
						},
					},
				},
			},
			"FlightList": map[string]any{
				"Flight": []any{
					map[string]any{"FlightKey": "FLT1", "SegmentReferences": map[string]any{"value": "SEG1"}},
				},
			},
		},
	}
}

func testQuery() domain.SearchQuery {
	return domain.SearchQuery{
		Origin:      "JFK",
		Destination: "LHR",
		Departure:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Cabin:       "economy",
		Passengers:  1,
	}
}

// ---- ShopService ----

func TestShop_PersistsSnapshotAndOffers(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{store: map[string][]byte{
		"search:JFK:LHR:2026-09-10:economy": []byte("{}"),
	}}
	s := app.NewShopService(&fakeClient{raw: shoppableResponse()}, repo, cache)

	res, err := s.Shop(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(res.Offers) != 1 || res.Meta.Total != 1 {
		t.Fatalf("result: %+v", res.Meta)
	}

	if len(repo.snaps) != 1 {
		t.Fatalf("snapshots: %d", len(repo.snaps))
	}
	snap := repo.snaps[0]
	if snap.ID == "" || snap.Origin != "JFK" || snap.Destination != "LHR" || snap.Total != 1 {
		t.Fatalf("snapshot: %+v", snap)
	}
	if len(snap.RawJSON) == 0 {
		t.Fatal("raw response not captured")
	}
	if len(repo.offers[snap.ID]) != 1 {
		t.Fatalf("offers persisted: %v", repo.offers)
	}

	// Fresh data invalidates the route cache entry.
	if len(cache.dels) != 1 || cache.dels[0] != "search:JFK:LHR:2026-09-10:economy" {
		t.Fatalf("cache invalidation: %v", cache.dels)
	}
}

func TestShop_UpstreamMissDegradesToFallback(t *testing.T) {
	repo := &fakeRepo{}
	s := app.NewShopService(&fakeClient{err: domain.ErrNotFound}, repo, &fakeCache{})

	res, err := s.Shop(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("miss must not fail the caller: %v", err)
	}
	if !res.Meta.IsFallback {
		t.Fatalf("want fallback: %+v", res.Meta)
	}
	if len(repo.misses) != 1 || repo.misses[0].status != 404 {
		t.Fatalf("miss log: %+v", repo.misses)
	}
	if len(repo.snaps) != 0 {
		t.Fatal("miss must not create a snapshot")
	}
}

func TestShop_CredentialRejectionLogged403(t *testing.T) {
	for _, sentinel := range []error{domain.ErrUnauthorized, domain.ErrForbidden} {
		repo := &fakeRepo{}
		s := app.NewShopService(&fakeClient{err: sentinel}, repo, &fakeCache{})

		res, err := s.Shop(context.Background(), testQuery())
		if err != nil || !res.Meta.IsFallback {
			t.Fatalf("%v: err=%v meta=%+v", sentinel, err, res.Meta)
		}
		if len(repo.misses) != 1 || repo.misses[0].status != 403 {
			t.Fatalf("%v: miss log %+v", sentinel, repo.misses)
		}
	}
}

func TestShop_TransportErrorBubbles(t *testing.T) {
	boom := errors.New("connection reset")
	s := app.NewShopService(&fakeClient{err: boom}, &fakeRepo{}, &fakeCache{})

	if _, err := s.Shop(context.Background(), testQuery()); !errors.Is(err, boom) {
		t.Fatalf("want transport error, got %v", err)
	}
}

func TestShop_StorageErrorBubbles(t *testing.T) {
	repo := &fakeRepo{saveSearchErr: errors.New("db down")}
	s := app.NewShopService(&fakeClient{raw: shoppableResponse()}, repo, &fakeCache{})

	if _, err := s.Shop(context.Background(), testQuery()); err == nil {
		t.Fatal("want storage error")
	}
}

// ---- SearchService ----

func TestSearch_CacheMissThenHit(t *testing.T) {
	client := &fakeClient{raw: shoppableResponse()}
	repo := &fakeRepo{}
	cache := &fakeCache{}
	shop := app.NewShopService(client, repo, cache)
	svc := app.NewSearchService(shop, repo, cache, 10*time.Minute)
	ctx := context.Background()

	res, err := svc.Search(ctx, testQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(res.Offers) != 1 || client.calls != 1 {
		t.Fatalf("first search: offers=%d calls=%d", len(res.Offers), client.calls)
	}

	// Second call is served from cache, no upstream trip.
	res, err = svc.Search(ctx, testQuery())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(res.Offers) != 1 || client.calls != 1 {
		t.Fatalf("cached search: offers=%d calls=%d", len(res.Offers), client.calls)
	}
}

func TestSearch_FallbackNotCached(t *testing.T) {
	client := &fakeClient{err: domain.ErrNotFound}
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewSearchService(app.NewShopService(client, repo, cache), repo, cache, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := svc.Search(ctx, testQuery())
		if err != nil || !res.Meta.IsFallback {
			t.Fatalf("call %d: err=%v meta=%+v", i, err, res.Meta)
		}
	}
	if client.calls != 2 {
		t.Fatalf("fallback must retry upstream, calls=%d", client.calls)
	}
	if cache.sets != 0 {
		t.Fatalf("fallback result cached %d times", cache.sets)
	}
}

func TestListOffers_CachesCopy(t *testing.T) {
	repo := &fakeRepo{listed: []domain.FlightOffer{{ID: "O1"}, {ID: "O2"}}}
	cache := &fakeCache{}
	svc := app.NewSearchService(app.NewShopService(&fakeClient{}, repo, cache), repo, cache, time.Minute)
	ctx := context.Background()

	out, err := svc.ListOffers(ctx, "S1", domain.OffersQuery{Limit: 10})
	if err != nil || len(out) != 2 {
		t.Fatalf("first list: %v %d", err, len(out))
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets: %d", cache.sets)
	}

	// Mutating the returned slice must not leak into the cached copy.
	out[0].ID = "mutated"
	again, err := svc.ListOffers(ctx, "S1", domain.OffersQuery{Limit: 10})
	if err != nil || again[0].ID != "O1" {
		t.Fatalf("cached copy aliased: %v %+v", err, again)
	}
}

func TestGetSearch_NotFound(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewSearchService(app.NewShopService(&fakeClient{}, repo, cache), repo, cache, time.Minute)

	if _, err := svc.GetSearch(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
