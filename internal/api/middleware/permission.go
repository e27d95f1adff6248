package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// RequirePermission gates a route on a named permission. Stacks after
// Identity; anonymous callers get 401, authenticated callers whose role sits
// below the permission's level get 403.
func RequirePermission(perm domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile, ok := c.Get(CtxProfile).(*domain.Profile)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !profile.Role.HasPermission(perm) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// RequireMinimumLevel gates a route on the role hierarchy directly, for
// routes whose requirement is a rank threshold rather than a named
// permission key.
func RequireMinimumLevel(level int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			profile, ok := c.Get(CtxProfile).(*domain.Profile)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !profile.Role.HasMinimumLevel(level) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// RequireRoles gates a route on an exact allow-list of roles. An empty list
// means public: any caller passes, authenticated or not. A non-empty list
// admits exactly the named roles; owner gets no implicit pass.
func RequireRoles(allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(allowed) == 0 {
				return next(c)
			}
			profile, ok := c.Get(CtxProfile).(*domain.Profile)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !domain.CanViewResource(profile.Role, allowed) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
