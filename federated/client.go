// Package federated drives the redirect-based single-sign-on flow against an
// external identity provider: authorize URL construction, the authorization
// code exchange, and claim extraction from the provider's identity token.
package federated

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/cleanstack/authcore/federated/flowstate"
	"github.com/cleanstack/authcore/identity"
	"github.com/cleanstack/authcore/token"
)

const (
	stateLength  = 32
	flowStateTTL = 15 * time.Minute
)

// Config identifies this client to the provider.
type Config struct {
	Authority   string // Provider base URL, e.g. https://adfs.example.com/adfs
	ClientID    string
	RedirectURI string
	Scopes      []string // Defaults to openid, profile, email
}

// Result is the outcome of a successful callback: the provider's tokens plus
// the identity extracted from the identity token.
type Result struct {
	Identity     identity.Identity
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	RawIDToken   string
}

// Client implements the relying-party side of the flow. It never signs tokens;
// the provider, not this client, guarantees authenticity.
type Client struct {
	oauthConfig oauth2.Config
	authority   string
	states      flowstate.Repo
	httpClient  *http.Client
	verifier    *oidc.IDTokenVerifier
	nowFunc     func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithFlowStateRepo replaces the default in-memory state store.
func WithFlowStateRepo(repo flowstate.Repo) ClientOption {
	return func(c *Client) {
		c.states = repo
	}
}

// WithHTTPClient sets the client used for the back-channel token exchange.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithNowFunc overrides the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

// NewClient creates a federated flow client for the given provider.
func NewClient(cfg Config, options ...ClientOption) (*Client, error) {
	if cfg.Authority == "" {
		return nil, fmt.Errorf("[NewClient] provider authority is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("[NewClient] client id is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	c := &Client{
		oauthConfig: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.Authority + "/oauth2/authorize",
				TokenURL: cfg.Authority + "/oauth2/token",
			},
		},
		authority: cfg.Authority,
		states:    flowstate.NewInMemoryRepo(flowStateTTL),
		nowFunc:   time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// EnableIDTokenVerification switches the client from unverified claim decoding
// to full signature verification against the provider's discovery document.
func (c *Client) EnableIDTokenVerification(ctx context.Context) error {
	provider, err := oidc.NewProvider(c.providerContext(ctx), c.authority)
	if err != nil {
		return fmt.Errorf("failed to discover provider: %w", err)
	}
	c.verifier = provider.Verifier(&oidc.Config{ClientID: c.oauthConfig.ClientID})
	return nil
}

// BuildAuthorizationURL generates fresh state and nonce values, stores them
// for later validation, and returns the provider's authorize URL with both
// embedded.
func (c *Client) BuildAuthorizationURL() (authURL, state, nonce string, err error) {
	state, err = generateRandomString(stateLength)
	if err != nil {
		return "", "", "", err
	}
	nonce, err = generateRandomString(stateLength)
	if err != nil {
		return "", "", "", err
	}

	if err := c.states.Upsert(state, &flowstate.FlowState{
		Nonce:     nonce,
		CreatedAt: c.nowFunc(),
	}); err != nil {
		return "", "", "", fmt.Errorf("failed to store flow state: %w", err)
	}

	authURL = c.oauthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_mode", "query"),
	)
	return authURL, state, nonce, nil
}

// HandleCallback validates the returned state against the stored one, then
// exchanges the authorization code for tokens over the back channel and
// extracts an Identity from the identity token's claims. Stored state and
// nonce are cleared whether the callback succeeds or fails.
func (c *Client) HandleCallback(ctx context.Context, code, returnedState string) (*Result, error) {
	if returnedState == "" {
		return nil, ErrStateMismatch
	}

	flowState, err := c.states.Get(returnedState)
	if err != nil || flowState == nil {
		return nil, ErrStateMismatch
	}

	// Single use: the state must not survive the callback.
	defer func() {
		_ = c.states.Delete(returnedState)
	}()

	oauth2Token, err := c.oauthConfig.Exchange(c.providerContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrCallbackFailed, err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: no identity token in response", ErrCallbackFailed)
	}

	claims, err := c.identityTokenClaims(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCallbackFailed, err)
	}

	if nonce, _ := claims["nonce"].(string); nonce != flowState.Nonce {
		return nil, ErrNonceMismatch
	}

	return &Result{
		Identity:     identity.FromClaims(claims),
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		ExpiresAt:    oauth2Token.Expiry,
		RawIDToken:   rawIDToken,
	}, nil
}

// IsExpired decodes the token's claimed expiry without verifying the signature
// and compares it to the current time. Undecodable tokens count as expired.
func (c *Client) IsExpired(accessToken string) bool {
	expiry, err := token.ExtractExpiry(accessToken)
	if err != nil {
		return true
	}
	return !c.nowFunc().Before(expiry)
}

// LogoutURL returns the provider's sign-out URL with the post-logout return
// destination embedded.
func (c *Client) LogoutURL(postLogoutRedirectURI string) string {
	return fmt.Sprintf("%s/ls/?wa=wsignout1.0&wreply=%s", c.authority, postLogoutRedirectURI)
}

func (c *Client) identityTokenClaims(ctx context.Context, rawIDToken string) (map[string]any, error) {
	if c.verifier != nil {
		idToken, err := c.verifier.Verify(ctx, rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("identity token verification failed: %w", err)
		}
		var claims map[string]any
		if err := idToken.Claims(&claims); err != nil {
			return nil, fmt.Errorf("failed to extract claims: %w", err)
		}
		return claims, nil
	}
	return token.DecodeClaims(rawIDToken)
}

func (c *Client) providerContext(ctx context.Context) context.Context {
	if c.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return ctx
}

func generateRandomString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
