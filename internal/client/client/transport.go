package client

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authdesk/internal/common"
)

// TokenSource returns the current access credential. It is called once per
// outbound request so that a login after startup is picked up immediately.
type TokenSource func() (string, bool)

// bearerTransport attaches the access credential and a request id to every
// request before handing it to base.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if t.tokens != nil {
		if token, ok := t.tokens(); ok {
			r.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		}
	}
	if r.Header.Get(common.RequestIDHeaderName) == "" {
		r.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	}

	return t.base.RoundTrip(r)
}
