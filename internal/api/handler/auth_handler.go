package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/linhthach/sanctum/internal/auth"
	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// SessionVerifier resolves raw credentials to a verified identity.
type SessionVerifier interface {
	Resolve(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
}

// CookieOptions controls the lifetime and transport flags of the credential
// cookies issued at login.
type CookieOptions struct {
	BearerMaxAge  time.Duration
	SessionMaxAge time.Duration
	Secure        bool
}

// AuthHandler owns the session lifecycle: establishing credentials as
// cookies, reporting the current caller, and revoking the session.
type AuthHandler struct {
	verifier SessionVerifier
	provider ports.IdentityProvider
	profiles ports.ProfileService
	cookies  CookieOptions
	log      zerolog.Logger
}

func NewAuthHandler(verifier SessionVerifier, provider ports.IdentityProvider, profiles ports.ProfileService, cookies CookieOptions, log zerolog.Logger) *AuthHandler {
	if cookies.BearerMaxAge <= 0 {
		cookies.BearerMaxAge = auth.DefaultBearerMaxAge
	}
	if cookies.SessionMaxAge <= 0 {
		cookies.SessionMaxAge = auth.DefaultSessionMaxAge
	}
	return &AuthHandler{
		verifier: verifier,
		provider: provider,
		profiles: profiles,
		cookies:  cookies,
		log:      log,
	}
}

type loginRequest struct {
	Token   string `json:"token"`
	Session string `json:"session"`
}

type identityResponse struct {
	Identity *domain.Identity `json:"identity"`
	Profile  *domain.Profile  `json:"profile"`
}

// Login handles POST /auth/session. The client supplies a provider-issued
// JWT and/or session reference; both are verified against the provider
// before being persisted as cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Token == "" && req.Session == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token or session is required")
	}

	creds := domain.Credentials{BearerToken: req.Token, SessionRef: req.Session}
	identity, err := h.verifier.Resolve(c.Request().Context(), creds)
	if err != nil {
		return err
	}
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	profile, err := h.profiles.GetOrCreateProfile(c.Request().Context(), identity.ID, identity.Name)
	if err != nil {
		return err
	}

	if req.Token != "" {
		c.SetCookie(auth.NewBearerCookie(req.Token, h.cookies.BearerMaxAge, h.cookies.Secure))
	}
	if req.Session != "" {
		c.SetCookie(auth.NewSessionCookie(req.Session, h.cookies.SessionMaxAge, h.cookies.Secure))
	}

	return c.JSON(http.StatusOK, identityResponse{Identity: identity, Profile: profile})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identityResponse{Identity: ctxIdentity(c), Profile: profile})
}

// Logout handles POST /auth/logout. Revokes the provider session when one is
// present and clears both cookie slots. Always succeeds from the client's
// point of view: a revocation failure is logged, not surfaced.
func (h *AuthHandler) Logout(c echo.Context) error {
	creds := ctxCredentials(c)
	if !creds.Empty() {
		if err := h.provider.RevokeSession(c.Request().Context(), creds); err != nil {
			h.log.Warn().Err(err).Msg("session revocation failed")
		}
	}
	for _, ck := range auth.ExpiredCookies(h.cookies.Secure) {
		c.SetCookie(ck)
	}
	return c.NoContent(http.StatusNoContent)
}
