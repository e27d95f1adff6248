package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/linhthach/sanctum/internal/api/metrics"
	"github.com/linhthach/sanctum/internal/auth"
	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// Context keys set by Identity for downstream handlers.
const (
	CtxIdentity    = "identity"
	CtxProfile     = "profile"
	CtxCredentials = "credentials"
)

// IdentityResolver turns raw request credentials into a verified identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
}

// Identity resolves the caller from the Cookie header and injects the
// identity and its profile into context. Anonymous requests (no cookies)
// pass through with neither key set; routes that need a caller stack
// RequireUser on top.
func Identity(resolver IdentityResolver, profiles ports.ProfileService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			creds := auth.ParseCredentials(c.Request().Header.Get("Cookie"))
			c.Set(CtxCredentials, creds)

			identity, err := resolver.Resolve(c.Request().Context(), creds)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrUnauthenticated):
					metrics.IdentityResolutionsTotal.WithLabelValues("unauthenticated").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired credentials")
				case errors.Is(err, domain.ErrProviderUnavailable):
					metrics.IdentityResolutionsTotal.WithLabelValues("provider_error").Inc()
					return echo.NewHTTPError(http.StatusServiceUnavailable, "identity provider unavailable, retry shortly")
				default:
					return err
				}
			}
			if identity == nil {
				metrics.IdentityResolutionsTotal.WithLabelValues("anonymous").Inc()
				return next(c)
			}
			metrics.IdentityResolutionsTotal.WithLabelValues("ok").Inc()

			profile, err := profiles.GetOrCreateProfile(c.Request().Context(), identity.ID, identity.Name)
			if err != nil {
				return err
			}

			c.Set(CtxIdentity, identity)
			c.Set(CtxProfile, profile)
			return next(c)
		}
	}
}

// RequireUser rejects anonymous requests. Must be stacked after Identity.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := c.Get(CtxProfile).(*domain.Profile); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}
