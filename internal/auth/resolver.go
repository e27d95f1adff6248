package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

const (
	defaultResolveTimeout = 5 * time.Second
	retryBackoff          = 200 * time.Millisecond
)

// Resolver exchanges extracted credentials for an authoritative identity.
// It distinguishes three outcomes: an identity, anonymous (nil identity, nil
// error, when no credential was supplied), and the error taxonomy
// (ErrUnauthenticated vs ErrProviderUnavailable).
type Resolver struct {
	provider ports.IdentityProvider
	timeout  time.Duration
	log      zerolog.Logger
}

func NewResolver(provider ports.IdentityProvider, timeout time.Duration, log zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &Resolver{provider: provider, timeout: timeout, log: log}
}

// Resolve fetches the identity for the given credentials. Every call hits
// the provider fresh so revocation is observed immediately. A transient
// provider failure is retried once with a short backoff; if it persists the
// caller gets ErrProviderUnavailable, never a false logout.
func (r *Resolver) Resolve(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	if creds.Empty() {
		return nil, nil
	}

	// A bearer token that is visibly expired cannot authenticate; skip the
	// provider round trip. The signature is still the provider's to verify,
	// this only reads the unauthenticated exp claim.
	if creds.BearerToken != "" && bearerExpired(creds.BearerToken) {
		return nil, domain.ErrUnauthenticated
	}

	identity, err := r.attempt(ctx, creds)
	if errors.Is(err, domain.ErrProviderUnavailable) {
		r.log.Warn().Err(err).Msg("identity provider unavailable, retrying once")
		select {
		case <-ctx.Done():
			return nil, domain.ErrProviderUnavailable
		case <-time.After(retryBackoff):
		}
		identity, err = r.attempt(ctx, creds)
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (r *Resolver) attempt(ctx context.Context, creds domain.Credentials) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.provider.CurrentIdentity(ctx, creds)
}

// bearerExpired reports whether the token carries an exp claim in the past.
// Tokens that do not parse at all are left for the provider to reject, so a
// malformed credential still surfaces as Unauthenticated with its reason.
func bearerExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
