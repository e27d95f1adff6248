package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/linhthach/sanctum/internal/api/middleware"
	"github.com/linhthach/sanctum/internal/core/domain"
)

// ctxProfile extracts the profile injected by the Identity middleware and
// fast-fails with 401 before any service call when it is absent.
func ctxProfile(c echo.Context) (*domain.Profile, error) {
	profile, ok := c.Get(middleware.CtxProfile).(*domain.Profile)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return profile, nil
}

// ctxIdentity extracts the verified identity, if any. Anonymous requests
// return nil.
func ctxIdentity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(middleware.CtxIdentity).(*domain.Identity)
	return identity
}

// ctxCredentials returns the raw credentials parsed from the request cookies.
func ctxCredentials(c echo.Context) domain.Credentials {
	creds, _ := c.Get(middleware.CtxCredentials).(domain.Credentials)
	return creds
}
