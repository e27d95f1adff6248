// Package identity implements the ports.IdentityProvider interface against
// an Appwrite-style account API over HTTP.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/core/domain"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for reaching the identity provider.
type Config struct {
	Endpoint  string
	ProjectID string
	Timeout   time.Duration
}

// Client calls the provider authenticated as the request's own identity.
// It holds no elevated service credentials: nothing in this core needs to
// act as anyone other than the caller.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// account is the provider's wire representation of an identity.
type account struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CurrentIdentity fetches the account behind the credential. The bearer
// token is used when present, otherwise the session reference.
func (c *Client) CurrentIdentity(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/account", creds)
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var acc account
		if err := json.NewDecoder(resp.Body).Decode(&acc); err != nil {
			return nil, fmt.Errorf("identity: decode account: %w", err)
		}
		return &domain.Identity{ID: acc.ID, Name: acc.Name, Email: acc.Email}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrUnauthenticated
	case resp.StatusCode >= 500:
		return nil, domain.ErrProviderUnavailable
	default:
		return nil, fmt.Errorf("identity: unexpected status %d", resp.StatusCode)
	}
}

// RevokeSession deletes the provider session behind the credential.
// Idempotent: a credential the provider no longer recognizes is treated as
// already revoked.
func (c *Client) RevokeSession(ctx context.Context, creds domain.Credentials) error {
	if creds.Empty() {
		return nil
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/account/sessions/current", creds)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ErrProviderUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound:
		// already dead, which is what we wanted
		return nil
	case resp.StatusCode >= 500:
		return domain.ErrProviderUnavailable
	default:
		return fmt.Errorf("identity: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, creds domain.Credentials) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Endpoint+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Project", c.cfg.ProjectID)
	req.Header.Set("Content-Type", "application/json")

	// Bearer token takes precedence over the opaque session reference.
	if creds.BearerToken != "" {
		req.Header.Set("X-JWT", creds.BearerToken)
	} else if creds.SessionRef != "" {
		req.Header.Set("X-Session", creds.SessionRef)
	}
	return req, nil
}
