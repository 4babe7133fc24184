package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DivyanshuTiwari-1/makeupai/internal/config"
	"github.com/DivyanshuTiwari-1/makeupai/internal/logger"
	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
)

// Introspector verifies a session access token with the auth provider and
// returns the identity it belongs to, or nil for an invalid/expired token.
type Introspector interface {
	Introspect(ctx context.Context, accessToken string) (*model.Identity, error)
}

// Resolver extracts the session token from a request's credentials and
// verifies it. A missing, invalid, or expired session resolves to nil
// identity; provider-side failures also collapse to nil (fail closed).
type Resolver struct {
	introspector Introspector
	cookieName   string
}

func NewResolver(introspector Introspector, cookieName string) *Resolver {
	if cookieName == "" {
		cookieName = "sb-access-token"
	}
	return &Resolver{introspector: introspector, cookieName: cookieName}
}

// Resolve never returns an error for an absent identity; nil identity is
// the normal "not signed in" outcome.
func (r *Resolver) Resolve(ctx context.Context, creds CredentialStore) *model.Identity {
	if r.introspector == nil {
		return nil
	}

	token := r.sessionToken(creds)
	if token == "" {
		return nil
	}

	id, err := r.introspector.Introspect(ctx, token)
	if err != nil {
		// no partial identity on provider failure
		logger.L().Warn("session introspection failed", zap.Error(err))
		return nil
	}
	return id
}

func (r *Resolver) sessionToken(creds CredentialStore) string {
	for _, c := range creds.ReadAll() {
		if c.Name == r.cookieName {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

// gotrueIntrospector calls the provider's user endpoint with the session
// access token, GoTrue style: GET {base}/auth/v1/user.
type gotrueIntrospector struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewIntrospector builds the HTTP introspection client, or nil when the
// provider is unconfigured so the gate fails closed.
func NewIntrospector(cfg config.AuthConfig) Introspector {
	if cfg.BaseURL == "" || cfg.AnonKey == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &gotrueIntrospector{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		anonKey: cfg.AnonKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type providerUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (g *gotrueIntrospector) Introspect(ctx context.Context, accessToken string) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", g.anonKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("introspect session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// invalid or expired session: an expected outcome, not an error
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("introspect session: provider status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("introspect session: %w", err)
	}

	var u providerUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("introspect session: %w", err)
	}
	if u.ID == "" {
		return nil, nil
	}
	return &model.Identity{ID: u.ID, Email: u.Email}, nil
}
