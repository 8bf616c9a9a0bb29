// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import "net/http"

// HeaderUserToken is the Backendless header carrying a logged-in user's
// session token for tables with ACL restrictions.
const HeaderUserToken = "user-token"

// Credentials attaches the Backendless user token expected by secured tables.
// A token supplied by the caller always wins over the configured one, so the
// proxy stays a pure passthrough for authenticated clients.
type Credentials struct {
	Token string
}

// NewCredentials constructs credentials around an optional static token.
func NewCredentials(token string) *Credentials {
	return &Credentials{Token: token}
}

// Attach sets the user-token header on the outbound request. The inbound
// headers are consulted first; requests without any token go out bare, which
// Backendless accepts for unrestricted tables.
func (c *Credentials) Attach(req *http.Request, inbound http.Header) {
	if inbound != nil {
		if token := inbound.Get(HeaderUserToken); token != "" {
			req.Header.Set(HeaderUserToken, token)
			return
		}
	}
	if c.Token != "" {
		req.Header.Set(HeaderUserToken, c.Token)
	}
}
