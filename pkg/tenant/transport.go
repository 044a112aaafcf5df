package tenant

import "net/http"

// Transport is an http.RoundTripper that stamps the propagation headers
// from the request context's carrier onto every outbound request. Clients
// calling collaborator services wrap their transport with it so downstream
// services see the same identity the gateway resolved.
type Transport struct {
	Base http.RoundTripper
}

// NewTransport wraps base, defaulting to http.DefaultTransport
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base}
}

// RoundTrip clones the request before mutating headers, as required by the
// http.RoundTripper contract
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tc, ok := FromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		tc.ApplyHeaders(req.Header)
	}
	return t.Base.RoundTrip(req)
}
