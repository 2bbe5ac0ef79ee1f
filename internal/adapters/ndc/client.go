// internal/adapters/ndc/client.go
package ndc

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flight_shop/internal/adapters/observability"
	"flight_shop/internal/domain"
)

type Client struct {
	base   string
	hc     *http.Client
	tokens *TokenSource
	rl     *rate.Limiter
}

func New(base string, tokens *TokenSource, rps int) (*Client, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:   base,
		hc:     &http.Client{Timeout: 30 * time.Second},
		tokens: tokens,
		rl:     rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// AirShopping runs one shopping request and returns the raw response graph
// for the normalizer. The payload is deliberately left as map[string]any:
// field presence is never guaranteed upstream.
func (c *Client) AirShopping(ctx context.Context, q domain.SearchQuery) (map[string]any, error) {
	body := shoppingRequest(q)
	var out map[string]any
	return out, c.post(ctx, c.base+"/airshopping", body, &out)
}

// shoppingRequest builds the vendor's origin/destination request block.
func shoppingRequest(q domain.SearchQuery) map[string]any {
	pax := q.Passengers
	if pax <= 0 {
		pax = 1
	}
	req := map[string]any{
		"CoreQuery": map[string]any{
			"OriginDestinations": []any{
				map[string]any{
					"Departure": map[string]any{
						"AirportCode": map[string]any{"value": q.Origin},
						"Date":        q.Departure.Format("2006-01-02"),
					},
					"Arrival": map[string]any{
						"AirportCode": map[string]any{"value": q.Destination},
					},
				},
			},
		},
		"Travelers": map[string]any{
			"Traveler": []any{
				map[string]any{"AnonymousTraveler": []any{
					map[string]any{"PTC": map[string]any{"value": "ADT"}, "Count": pax},
				}},
			},
		},
	}
	if q.Cabin != "" {
		req["Preference"] = map[string]any{
			"CabinPreferences": map[string]any{"CabinType": []any{
				map[string]any{"Code": cabinCode(q.Cabin)},
			}},
		}
	}
	return req
}

// cabinCode maps our cabin names to the vendor's single-digit codes.
func cabinCode(cabin string) string {
	switch strings.ToLower(cabin) {
	case "first":
		return "1"
	case "business":
		return "2"
	case "premium_economy":
		return "4"
	default:
		return "5"
	}
}

// post performs a POST with client-side rate limiting, bearer auth, retries,
// and JSON decode into out. Retries on 429 and transient 5xx, honoring
// Retry-After when provided.
func (c *Client) post(ctx context.Context, url string, body any, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("acquire token: %w", err)
		}

		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "flight-shop/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("ndc", "airshopping", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
