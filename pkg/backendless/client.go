// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package backendless wraps the Backendless data REST API behind a small
// client that performs exactly one outbound call per operation. Responses are
// read in full because the proxy has to inspect every body while normalizing
// it for the caller; nothing is streamed.
package backendless

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/users-proxy/pkg/auth"
	"github.com/go-core-stack/users-proxy/pkg/config"
)

// Response captures a fully-read upstream reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// ConnectError marks a transport-level failure reaching the upstream: dial
// errors, TLS failures, timeouts, canceled requests. The proxy reports all of
// these to the caller as 503.
type ConnectError struct {
	Err error
}

// Error implements the error interface for ConnectError.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("backendless unreachable: %v", e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As checks.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Client forwards CRUD calls to the configured Backendless data table.
type Client struct {
	// base is the parsed collection URL; item URLs append the object id.
	base *url.URL
	// http performs outbound requests with tuned transport settings.
	http *http.Client
	// creds injects the user-token header expected by secured tables.
	creds *auth.Credentials
	// logger emits structured lines for outbound traffic.
	logger zerolog.Logger
}

// New constructs a Client backed by an http.Client configured with sensible
// connection pooling defaults and the provided runtime configuration.
func New(cfg config.Config) *Client {
	// Build a transport that honours system proxies and keeps connections warm.
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}

	return &Client{
		base:   cloneURL(cfg.Upstream),
		http:   client,
		creds:  auth.NewCredentials(cfg.UpstreamToken),
		logger: log.With().Str("component", "backendless").Logger(),
	}
}

// ListUsers fetches every record in the table.
func (c *Client) ListUsers(ctx context.Context, inbound http.Header) (*Response, error) {
	return c.do(ctx, http.MethodGet, "", nil, inbound)
}

// CreateUser inserts a record; the upstream assigns the object id.
func (c *Client) CreateUser(ctx context.Context, inbound http.Header, payload map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPost, "", payload, inbound)
}

// GetUser fetches a single record by its object id.
func (c *Client) GetUser(ctx context.Context, inbound http.Header, objectID string) (*Response, error) {
	return c.do(ctx, http.MethodGet, objectID, nil, inbound)
}

// UpdateUser sends a partial update carrying only the provided fields.
func (c *Client) UpdateUser(ctx context.Context, inbound http.Header, objectID string, payload map[string]any) (*Response, error) {
	return c.do(ctx, http.MethodPut, objectID, payload, inbound)
}

// DeleteUser removes a record; Backendless often replies 200/204 with no body.
func (c *Client) DeleteUser(ctx context.Context, inbound http.Header, objectID string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, objectID, nil, inbound)
}

// do builds the outbound request, attaches credentials, performs the single
// upstream call, and drains the response body.
func (c *Client) do(ctx context.Context, method, objectID string, payload map[string]any, inbound http.Header) (*Response, error) {
	target := c.itemURL(objectID)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode upstream payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.creds.Attach(req, inbound)

	c.logger.Info().
		Str("method", method).
		Str("url", target.String()).
		Msg("forwarding to Backendless")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", target.String()).
			Msg("upstream request failed")
		return nil, &ConnectError{Err: err}
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Error().Err(closeErr).Msg("close upstream response body failed")
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// itemURL resolves the collection URL, or the record URL when an object id is
// given. Ids are opaque upstream-assigned strings and are path-escaped as-is.
func (c *Client) itemURL(objectID string) *url.URL {
	target := cloneURL(c.base)
	if objectID != "" {
		target.Path = strings.TrimSuffix(target.Path, "/") + "/" + url.PathEscape(objectID)
	}
	return target
}

// cloneURL makes a shallow copy of the provided URL pointer.
func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
