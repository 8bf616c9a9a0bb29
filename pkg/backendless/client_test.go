// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package backendless

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-core-stack/users-proxy/pkg/auth"
	"github.com/go-core-stack/users-proxy/pkg/config"
)

type upstreamCall struct {
	method string
	path   string
	header http.Header
	body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *upstreamCall) {
	t.Helper()

	call := &upstreamCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		call.method = r.Method
		call.path = r.URL.Path
		call.header = r.Header.Clone()
		call.body = body
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	upstream, err := url.Parse(srv.URL + "/api/data/users1")
	require.NoError(t, err)

	return New(config.Config{
		Upstream:       upstream,
		UpstreamToken:  "service-token",
		RequestTimeout: 2 * time.Second,
	}), call
}

func TestListUsersHitsCollectionURL(t *testing.T) {
	client, call := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"objectId":"abc123"}]`))
	})

	resp, err := client.ListUsers(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/api/data/users1", call.path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"objectId":"abc123"}]`, string(resp.Body))
}

func TestCreateUserSendsJSONPayload(t *testing.T) {
	client, call := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"objectId":"abc123","nombre":"Ana","email":"ana@x.com"}`))
	})

	resp, err := client.CreateUser(context.Background(), nil, map[string]any{
		"nombre": "Ana",
		"email":  "ana@x.com",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/api/data/users1", call.path)
	assert.Equal(t, "application/json", call.header.Get("Content-Type"))
	assert.JSONEq(t, `{"nombre":"Ana","email":"ana@x.com"}`, string(call.body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var created map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &created))
	assert.Equal(t, "abc123", created["objectId"])
}

func TestItemOperationsAppendObjectID(t *testing.T) {
	client, call := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.DeleteUser(context.Background(), nil, "abc123")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, call.method)
	assert.Equal(t, "/api/data/users1/abc123", call.path)

	_, err = client.GetUser(context.Background(), nil, "with space")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/api/data/users1/with space", call.path)

	_, err = client.UpdateUser(context.Background(), nil, "abc123", map[string]any{"nombre": "Bea"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, call.method)
	assert.JSONEq(t, `{"nombre":"Bea"}`, string(call.body))
}

func TestCredentialsAttachedToOutboundRequests(t *testing.T) {
	client, call := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.ListUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "service-token", call.header.Get(auth.HeaderUserToken))

	inbound := make(http.Header)
	inbound.Set(auth.HeaderUserToken, "caller-token")

	_, err = client.ListUsers(context.Background(), inbound)
	require.NoError(t, err)
	assert.Equal(t, "caller-token", call.header.Get(auth.HeaderUserToken))
}

func TestConnectivityFailureWrapsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	upstream, err := url.Parse(srv.URL + "/api/data/users1")
	require.NoError(t, err)
	srv.Close()

	client := New(config.Config{
		Upstream:       upstream,
		RequestTimeout: time.Second,
	})

	_, err = client.ListUsers(context.Background(), nil)
	require.Error(t, err)

	var connErr *ConnectError
	require.ErrorAs(t, err, &connErr)
	assert.NotEmpty(t, connErr.Err.Error())
}
