// Package session resolves a caller identity from a request's session
// credentials by introspecting them against the hosted auth provider.
package session

import "net/http"

// Credential is one session credential entry (a cookie, in HTTP terms).
type Credential struct {
	Name  string
	Value string
}

// CredentialStore is a read-only view of a request's session credentials
// plus a sink for refreshed credentials. Contexts that cannot write back
// (webhook handling, background work) supply a store whose Apply is a no-op.
type CredentialStore interface {
	ReadAll() []Credential
	Apply(updates []Credential)
}

// RequestCredentials adapts an inbound request's cookies. Apply is a no-op:
// inbound request cookies are read-only.
type RequestCredentials struct {
	req *http.Request
}

func NewRequestCredentials(req *http.Request) *RequestCredentials {
	return &RequestCredentials{req: req}
}

func (rc *RequestCredentials) ReadAll() []Credential {
	cookies := rc.req.Cookies()
	out := make([]Credential, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Credential{Name: c.Name, Value: c.Value})
	}
	return out
}

func (rc *RequestCredentials) Apply([]Credential) {}

// ResponseCredentials writes refreshed credentials onto an outbound
// response so the client picks up rotated session tokens.
type ResponseCredentials struct {
	req    *http.Request
	header http.Header
}

func NewResponseCredentials(req *http.Request, responseHeader http.Header) *ResponseCredentials {
	return &ResponseCredentials{req: req, header: responseHeader}
}

func (rc *ResponseCredentials) ReadAll() []Credential {
	return NewRequestCredentials(rc.req).ReadAll()
}

func (rc *ResponseCredentials) Apply(updates []Credential) {
	for _, u := range updates {
		cookie := &http.Cookie{
			Name:     u.Name,
			Value:    u.Value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if v := cookie.String(); v != "" {
			rc.header.Add("Set-Cookie", v)
		}
	}
}
