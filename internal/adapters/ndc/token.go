package ndc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"flight_shop/internal/adapters/observability"
	"flight_shop/internal/domain"
)

// expiryMargin is subtracted from expires_in so a token is replaced before
// the upstream would reject it.
const expiryMargin = 60 * time.Second

const tokenStoreKey = "ndc:token"

// Token is the upstream token-endpoint response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// storedToken is what goes into the durable store: the token plus its
// absolute expiry, so freshness survives process restarts.
type storedToken struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenSource caches a client-credentials bearer token in memory and in an
// optional durable store. It never hands out a token within expiryMargin of
// expiry. Concurrent callers that both observe an expired token may each
// fetch a fresh one; the later response overwrites the earlier. A benign
// race, not a correctness issue.
type TokenSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	hc           *http.Client
	store        domain.Cache     // optional durable store
	now          func() time.Time // injectable clock for tests

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewTokenSource(tokenURL, clientID, clientSecret string, store domain.Cache) *TokenSource {
	return &TokenSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		hc:           &http.Client{Timeout: 15 * time.Second},
		store:        store,
		now:          time.Now,
	}
}

// WithClock replaces the clock; tests use it to control expiry without
// sleeping or touching global state.
func (s *TokenSource) WithClock(now func() time.Time) *TokenSource {
	s.now = now
	return s
}

// Token returns a bearer token that is valid for at least expiryMargin.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	now := s.now()

	s.mu.Lock()
	if s.token != "" && now.Before(s.expires) {
		tok := s.token
		s.mu.Unlock()
		observability.ObserveToken("memory_hit")
		return tok, nil
	}
	s.mu.Unlock()

	if tok, ok := s.fromStore(ctx, now); ok {
		observability.ObserveToken("store_hit")
		return tok, nil
	}

	tok, expires, err := s.fetch(ctx)
	if err != nil {
		observability.ObserveToken("fetch_error")
		return "", err
	}
	observability.ObserveToken("fetch")

	s.mu.Lock()
	s.token, s.expires = tok, expires
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(ctx, tokenStoreKey, storedToken{AccessToken: tok, ExpiresAt: expires},
			int(expires.Sub(s.now()).Seconds())); err != nil {
			log.Warn().Err(err).Msg("persist token failed")
		}
	}
	return tok, nil
}

// Clear drops the cached token from memory and the durable store.
func (s *TokenSource) Clear(ctx context.Context) {
	s.mu.Lock()
	s.token, s.expires = "", time.Time{}
	s.mu.Unlock()
	if s.store != nil {
		_ = s.store.Del(ctx, tokenStoreKey)
	}
}

func (s *TokenSource) fromStore(ctx context.Context, now time.Time) (string, bool) {
	if s.store == nil {
		return "", false
	}
	var st storedToken
	ok, err := s.store.Get(ctx, tokenStoreKey, &st)
	if err != nil || !ok || st.AccessToken == "" || !now.Before(st.ExpiresAt) {
		return "", false
	}
	s.mu.Lock()
	s.token, s.expires = st.AccessToken, st.ExpiresAt
	s.mu.Unlock()
	return st.AccessToken, true
}

// fetch requests a new token: form-encoded client_credentials grant with
// HTTP Basic credentials. Failures propagate to the caller; no retry here.
func (s *TokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("ndc", "token", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", time.Time{}, fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var tok Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token endpoint returned empty access_token")
	}

	expires := s.now().Add(time.Duration(tok.ExpiresIn)*time.Second - expiryMargin)
	return tok.AccessToken, expires, nil
}
