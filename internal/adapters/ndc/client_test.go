package ndc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"flight_shop/internal/adapters/ndc"
	"flight_shop/internal/domain"
)

func testQuery() domain.SearchQuery {
	return domain.SearchQuery{
		Origin:      "JFK",
		Destination: "LHR",
		Departure:   time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Cabin:       "business",
		Passengers:  2,
	}
}

func newTestClient(t *testing.T, shopURL string) (*ndc.Client, func()) {
	t.Helper()
	var tokenHits int32
	ts := tokenServer(t, &tokenHits, 3600)
	tokens := ndc.NewTokenSource(ts.URL, "client-id", "client-secret", nil)
	cl, err := ndc.New(shopURL, tokens, 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl, ts.Close
}

func TestClient_AirShopping_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{"DataLists": map[string]any{}})
		}
	}))
	defer ts.Close()

	cl, closeTokens := newTestClient(t, ts.URL)
	defer closeTokens()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.AirShopping(ctx, testQuery())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, ok := got["DataLists"]; !ok {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_AirShopping_SentinelErrors(t *testing.T) {
	cases := map[int]error{
		http.StatusNotFound:     domain.ErrNotFound,
		http.StatusUnauthorized: domain.ErrUnauthorized,
		http.StatusForbidden:    domain.ErrForbidden,
	}
	for status, want := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		cl, closeTokens := newTestClient(t, ts.URL)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, err := cl.AirShopping(ctx, testQuery())
		if !errors.Is(err, want) {
			t.Errorf("status %d: got %v want %v", status, err, want)
		}
		cancel()
		closeTokens()
		ts.Close()
	}
}

func TestClient_AirShopping_RequestShape(t *testing.T) {
	var captured map[string]any
	var auth, contentType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer ts.Close()

	cl, closeTokens := newTestClient(t, ts.URL)
	defer closeTokens()

	if _, err := cl.AirShopping(context.Background(), testQuery()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if auth != "Bearer tok-1" {
		t.Fatalf("authorization: %q", auth)
	}
	if contentType != "application/json" {
		t.Fatalf("content type: %q", contentType)
	}

	od := captured["CoreQuery"].(map[string]any)["OriginDestinations"].([]any)[0].(map[string]any)
	dep := od["Departure"].(map[string]any)
	if dep["AirportCode"].(map[string]any)["value"] != "JFK" || dep["Date"] != "2026-09-10" {
		t.Fatalf("departure block: %+v", dep)
	}
	arr := od["Arrival"].(map[string]any)
	if arr["AirportCode"].(map[string]any)["value"] != "LHR" {
		t.Fatalf("arrival block: %+v", arr)
	}

	cabin := captured["Preference"].(map[string]any)["CabinPreferences"].(map[string]any)["CabinType"].([]any)[0].(map[string]any)
	if cabin["Code"] != "2" {
		t.Fatalf("cabin code: %+v", cabin)
	}
}

func TestClient_RequiresTokenSource(t *testing.T) {
	if _, err := ndc.New("http://example.invalid", nil, 5); err == nil {
		t.Fatal("expected error without token source")
	}
}
