// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/users-proxy/pkg/backendless"
)

const (
	errMissingJSON     = "Missing JSON in request"
	errMissingFields   = "Missing required fields: 'nombre' and 'email'"
	errNoUpdateFields  = "No valid fields provided for update ('nombre' or 'email')"
	errUpstreamDefault = "An unexpected Backendless error occurred."
	errUnreachable     = "Failed to connect to Backendless API"
)

// updatableFields lists the record fields the proxy recognizes; anything else
// in an update body is dropped before forwarding.
var updatableFields = []string{"nombre", "email"}

// Handler serves the local users routes backed by the Backendless client.
type Handler struct {
	client   *backendless.Client
	validate *validator.Validate
	logger   zerolog.Logger
}

// New constructs the chi router with all routes configured.
func New(client *backendless.Client) http.Handler {
	h := &Handler{
		client:   client,
		validate: validator.New(),
		logger:   log.With().Str("component", "proxy").Logger(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", h.health)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Post("/", h.createUser)
		r.Get("/{objectID}", h.getUser)
		r.Put("/{objectID}", h.updateUser)
		r.Delete("/{objectID}", h.deleteUser)
	})

	return r
}

// requestLogger emits one structured line per request with the final status
// and duration.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.client.ListUsers(r.Context(), r.Header)
	if err != nil {
		h.connectFailure(w, err)
		return
	}
	h.relay(w, resp)
}

// createUserRequest carries the only two fields the table recognizes; both
// must be present and non-empty.
type createUserRequest struct {
	Nombre string `json:"nombre" validate:"required"`
	Email  string `json:"email" validate:"required"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if !isJSONRequest(r) {
		h.clientError(w, errMissingJSON)
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.clientError(w, errMissingJSON)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.clientError(w, errMissingFields)
		return
	}

	payload := map[string]any{"nombre": req.Nombre, "email": req.Email}

	resp, err := h.client.CreateUser(r.Context(), r.Header, payload)
	if err != nil {
		h.connectFailure(w, err)
		return
	}
	h.relay(w, resp)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "objectID")

	resp, err := h.client.GetUser(r.Context(), r.Header, objectID)
	if err != nil {
		h.connectFailure(w, err)
		return
	}
	h.relay(w, resp)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	if !isJSONRequest(r) {
		h.clientError(w, errMissingJSON)
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.clientError(w, errMissingJSON)
		return
	}

	// Key presence decides what goes upstream; explicit nulls count as
	// provided, matching the partial-update contract.
	payload := map[string]any{}
	for _, field := range updatableFields {
		if raw, ok := body[field]; ok {
			payload[field] = raw
		}
	}

	if len(payload) == 0 {
		h.clientError(w, errNoUpdateFields)
		return
	}

	objectID := chi.URLParam(r, "objectID")

	resp, err := h.client.UpdateUser(r.Context(), r.Header, objectID, payload)
	if err != nil {
		h.connectFailure(w, err)
		return
	}
	h.relay(w, resp)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "objectID")

	resp, err := h.client.DeleteUser(r.Context(), r.Header, objectID)
	if err != nil {
		h.connectFailure(w, err)
		return
	}

	// Backendless replies 200/204 with an empty or trivial body on success;
	// surface a stable confirmation message instead.
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"message": "User " + objectID + " successfully deleted",
		})
		return
	}

	h.relay(w, resp)
}

// relay applies the shared normalization policy to an upstream reply:
// JSON bodies pass through on 2xx, get wrapped in an error envelope
// otherwise; non-JSON bodies become a message envelope.
func (h *Handler) relay(w http.ResponseWriter, resp *backendless.Response) {
	trimmed := bytes.TrimSpace(resp.Body)

	if len(trimmed) == 0 || !json.Valid(trimmed) {
		text := strings.TrimSpace(string(resp.Body))
		if text == "" {
			text = "Operation successful"
		}
		h.writeJSON(w, resp.StatusCode, map[string]any{"message": text})
		return
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if _, err := w.Write(trimmed); err != nil {
			h.logger.Error().Err(err).Msg("write response failed")
		}
		return
	}

	message := errUpstreamDefault
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Message != "" {
		message = envelope.Message
	}

	h.logger.Warn().
		Int("status", resp.StatusCode).
		Str("message", message).
		Msg("upstream returned error")

	h.writeJSON(w, resp.StatusCode, map[string]any{
		"error":   message,
		"details": json.RawMessage(trimmed),
	})
}

// clientError reports a validation failure without touching the upstream.
func (h *Handler) clientError(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": message})
}

// connectFailure maps a transport failure to 503 with the underlying cause.
func (h *Handler) connectFailure(w http.ResponseWriter, err error) {
	detail := err.Error()
	var connErr *backendless.ConnectError
	if errors.As(err, &connErr) {
		detail = connErr.Err.Error()
	}

	h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"error":   errUnreachable,
		"details": detail,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("encode response failed")
	}
}

// isJSONRequest mirrors the usual is-json check: the declared media type must
// be application/json or a +json variant.
func isJSONRequest(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
