// Package auth implements the request-side half of identity: extracting
// credentials from cookies and resolving them against the identity provider.
package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/linhthach/sanctum/internal/core/domain"
)

// Cookie slot names. The bearer slot holds a short-lived signed token; the
// session slot holds the provider's longer-lived opaque session reference.
const (
	CookieBearer  = "bearer"
	CookieSession = "session"
)

// Default cookie lifetimes. The bearer max-age is deliberately shorter than
// the token's own ~15-minute validity so the client refreshes before the
// token expires mid-use.
const (
	DefaultBearerMaxAge  = 14 * time.Minute
	DefaultSessionMaxAge = 7 * 24 * time.Hour
)

// ParseCredentials extracts the bearer and session slots from raw Cookie
// header text. Pairs are `;`-separated k=v with URL-encoded values.
// Malformed pairs are skipped: a parse failure degrades to "no credential
// found", never an error.
func ParseCredentials(raw string) domain.Credentials {
	var creds domain.Credentials

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.Trim(strings.TrimSpace(value), `"`)
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		if value == "" {
			continue
		}

		switch name {
		case CookieBearer:
			creds.BearerToken = value
		case CookieSession:
			creds.SessionRef = value
		}
	}

	return creds
}

// NewBearerCookie builds the bearer slot cookie. httpOnly always; secure
// outside development; SameSite=Lax; path=/.
func NewBearerCookie(token string, maxAge time.Duration, secure bool) *http.Cookie {
	return credentialCookie(CookieBearer, token, maxAge, secure)
}

// NewSessionCookie builds the session slot cookie.
func NewSessionCookie(ref string, maxAge time.Duration, secure bool) *http.Cookie {
	return credentialCookie(CookieSession, ref, maxAge, secure)
}

// ExpiredCookies returns both slots with an immediate expiry, used by logout
// to clear the client's credentials.
func ExpiredCookies(secure bool) []*http.Cookie {
	return []*http.Cookie{
		credentialCookie(CookieBearer, "", -time.Second, secure),
		credentialCookie(CookieSession, "", -time.Second, secure),
	}
}

func credentialCookie(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge / time.Second)
	}
	return c
}
