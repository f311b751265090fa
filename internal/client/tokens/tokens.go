// Package tokens owns the bearer credential shared by every request path.
//
// The credential-exchange flow itself (OAuth2) is an external collaborator:
// this package only consumes a Provider and synchronizes access to the token
// it yields.
package tokens

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
)

// Provider produces a bearer access token. It is invoked at startup and
// whenever the transport detects an expired credential.
type Provider interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenSourceProvider adapts an oauth2.TokenSource to the Provider interface.
type TokenSourceProvider struct {
	src oauth2.TokenSource
}

func NewTokenSourceProvider(src oauth2.TokenSource) *TokenSourceProvider {
	return &TokenSourceProvider{src: src}
}

func (p *TokenSourceProvider) AccessToken(ctx context.Context) (string, error) {
	tok, err := p.src.Token()
	if err != nil {
		return "", fmt.Errorf("token source: %w", err)
	}
	return tok.AccessToken, nil
}

// StaticProvider always returns the same token. Useful for tests and for
// pre-issued tokens.
type StaticProvider string

func (p StaticProvider) AccessToken(ctx context.Context) (string, error) {
	return string(p), nil
}

// Cell is a synchronized holder of the current bearer token.
//
// Every request reads the token together with its generation number. When a
// request detects credential expiry it calls Refresh with the generation it
// observed: only the first caller of a generation actually hits the Provider,
// concurrent callers that lost the race reuse the already refreshed token.
type Cell struct {
	mu       sync.Mutex
	provider Provider
	token    string
	gen      int64
	loaded   bool
}

func NewCell(provider Provider) *Cell {
	return &Cell{provider: provider}
}

// Token returns the current token and its generation, fetching the initial
// token lazily on first use.
func (c *Cell) Token(ctx context.Context) (string, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		if err := c.refreshLocked(ctx); err != nil {
			return "", 0, err
		}
	}
	return c.token, c.gen, nil
}

// Refresh replaces the token unless another caller already refreshed past
// seenGen. It returns the token to use for the retried request.
func (c *Cell) Refresh(ctx context.Context, seenGen int64) (string, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && c.gen > seenGen {
		// Someone else refreshed since the caller read the token.
		return c.token, c.gen, nil
	}
	if err := c.refreshLocked(ctx); err != nil {
		return "", 0, err
	}
	return c.token, c.gen, nil
}

func (c *Cell) refreshLocked(ctx context.Context) error {
	token, err := c.provider.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("refresh access token: %w", err)
	}
	c.token = token
	c.gen++
	c.loaded = true
	return nil
}
