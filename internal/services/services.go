package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// TokenStore yields the bearer token for outbound requests.
//
// Token returns "" when there is no session; the request then goes out unauthenticated.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, typically from PULLSENSE_TOKEN.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// TokenChain returns the first non-empty token of its stores, in order.
type TokenChain []TokenStore

func (c TokenChain) Token(ctx context.Context) (string, error) {
	for _, store := range c {
		if store == nil {
			continue
		}
		token, err := store.Token(ctx)
		if err != nil {
			return "", err
		}
		if token != "" {
			return token, nil
		}
	}
	return "", nil
}

// bearerTransport attaches the current token to each request.
type bearerTransport struct {
	tokens TokenStore
	base   http.RoundTripper
}

// NewBearerTransport wraps base so every request is authenticated from tokens.
//
// Unlike [oauth2.Transport] a missing token is not an error.
func NewBearerTransport(tokens TokenStore, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if tokens == nil {
		return base
	}
	return &bearerTransport{tokens: tokens, base: base}
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return t.base.RoundTrip(req)
	}

	authed := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(authed)
	return t.base.RoundTrip(authed)
}

// NewHTTPClient builds the client shared by [Gateway] and [APIService].
func NewHTTPClient(tokens TokenStore, base http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewBearerTransport(tokens, base),
	}
}
