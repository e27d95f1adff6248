package ports

import (
	"context"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// IdentityProvider is the narrow interface to the external auth system.
// Implementations authenticate with whichever credential is present (bearer
// token preferred) and never cache identities locally.
type IdentityProvider interface {
	// CurrentIdentity exchanges a credential for the authoritative identity.
	// Returns domain.ErrUnauthenticated when the credential is present but
	// rejected, and domain.ErrProviderUnavailable on network or availability
	// failures so callers can retry instead of logging the user out.
	CurrentIdentity(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)

	// RevokeSession invalidates the credential's session at the provider.
	// Idempotent: revoking an already-dead session is not an error.
	RevokeSession(ctx context.Context, creds domain.Credentials) error
}
