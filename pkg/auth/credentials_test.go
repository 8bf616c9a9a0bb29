// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachPrefersCallerToken(t *testing.T) {
	creds := NewCredentials("service-token")

	inbound := make(http.Header)
	inbound.Set(HeaderUserToken, "caller-token")

	req := httptest.NewRequest(http.MethodGet, "https://upstream.example.com/api/data/users1", nil)
	creds.Attach(req, inbound)

	assert.Equal(t, "caller-token", req.Header.Get(HeaderUserToken))
}

func TestAttachFallsBackToConfiguredToken(t *testing.T) {
	creds := NewCredentials("service-token")

	req := httptest.NewRequest(http.MethodGet, "https://upstream.example.com/api/data/users1", nil)
	creds.Attach(req, make(http.Header))

	assert.Equal(t, "service-token", req.Header.Get(HeaderUserToken))
}

func TestAttachLeavesRequestBareWithoutTokens(t *testing.T) {
	creds := NewCredentials("")

	req := httptest.NewRequest(http.MethodGet, "https://upstream.example.com/api/data/users1", nil)
	creds.Attach(req, nil)

	_, present := req.Header[http.CanonicalHeaderKey(HeaderUserToken)]
	assert.False(t, present)
}
