package domain

// Identity is the authoritative answer to "who is making this request",
// fetched fresh from the identity provider on every request so a revoked
// credential is noticed immediately. It is never persisted by this service.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials are the raw values extracted from the request's cookie jar.
// At most one is authoritative: the bearer token wins when both are present.
type Credentials struct {
	BearerToken string
	SessionRef  string
}

// Empty reports whether no credential at all was supplied, which resolves to
// an anonymous viewer rather than an authentication failure.
func (c Credentials) Empty() bool {
	return c.BearerToken == "" && c.SessionRef == ""
}
