// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backend is the transport to the remote Shopie REST backend.

It is a thin wrapper around [http.Client] whose one real job is classifying
every outcome into the agent's error taxonomy:

  - No usable response (timeout, refused, unreadable or malformed body) → NETWORK_ERROR.
  - 401/403 → AUTH_ERROR.
  - 400/422 → VALIDATION_ERROR carrying the server's message verbatim.
  - 404 → NOT_FOUND, 409 → CONFLICT, 5xx → SERVER_ERROR.

The client is stateless with respect to credentials: callers pass the bearer
token per request. Session ownership lives in the session package.
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/constants"
	"github.com/taibuivan/shopie/internal/platform/ctxutil"
	"github.com/taibuivan/shopie/pkg/uuid"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// # Request Model

// Request describes one call to the backend.
type Request struct {
	// Method is the HTTP verb; empty means GET.
	Method string
	// Path is appended to the base URL (e.g. "/cart/items/12").
	Path string
	// Query holds URL query parameters.
	Query url.Values
	// Body is JSON-encoded when non-nil.
	Body any
}

// FilePart is a single file sent as multipart/form-data.
type FilePart struct {
	// Field is the form field name ("file" for image upload).
	Field    string
	Filename string
	Content  io.Reader
}

// # Client

// Client performs requests against the backend base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a [Client].
//
// # Parameters
//   - baseURL: Backend root including its API prefix (e.g. "http://10.0.2.2:8081/api").
//   - timeout: Per-request deadline applied by the underlying [http.Client].
//   - logger: Structured logger for request diagnostics.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL returns the configured backend root.
func (client *Client) BaseURL() string { return client.baseURL }

// Do sends a JSON request and returns the raw JSON payload of a 2xx answer.
//
// # Parameters
//   - ctx: Cancels the exchange; cancellation surfaces as NETWORK_ERROR.
//   - req: The request description.
//   - token: Bearer credential; empty sends no Authorization header.
//
// # Returns
//   - The response payload, or nil when the backend answered with no JSON content.
//   - An [*apperr.AppError] classified per the package contract.
func (client *Client) Do(ctx context.Context, req Request, token string) (json.RawMessage, error) {
	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("backend_encode_body_failed: %w", err))
		}
		body = bytes.NewReader(encoded)
	}

	httpRequest, err := client.newRequest(ctx, req.Method, req.Path, req.Query, body, token)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		httpRequest.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	}

	return client.send(httpRequest)
}

// Upload sends a multipart/form-data request carrying a single file.
func (client *Client) Upload(ctx context.Context, path string, part FilePart, token string) (json.RawMessage, error) {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	field := part.Field
	if field == "" {
		field = "file"
	}

	fileWriter, err := writer.CreateFormFile(field, part.Filename)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("backend_multipart_create_failed: %w", err))
	}
	if _, err := io.Copy(fileWriter, part.Content); err != nil {
		return nil, apperr.ValidationError("Unable to read the file to upload")
	}
	if err := writer.Close(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("backend_multipart_close_failed: %w", err))
	}

	httpRequest, err := client.newRequest(ctx, http.MethodPost, path, nil, &buffer, token)
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set(constants.HeaderContentType, writer.FormDataContentType())

	return client.send(httpRequest)
}

// Ping reports whether the backend host answers at all.
//
// Any HTTP answer counts as reachable; only transport failures are errors.
func (client *Client) Ping(ctx context.Context) error {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+"/categories", nil)
	if err != nil {
		return fmt.Errorf("backend: invalid base URL: %w", err)
	}
	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return fmt.Errorf("backend: unreachable: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, maxBodyBytes))
	_ = response.Body.Close()
	return nil
}

// newRequest builds the HTTP request with the common headers.
func (client *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, token string) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}

	target := client.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("backend_build_request_failed: %w", err))
	}

	httpRequest.Header.Set("Accept", constants.ContentTypeJSON)
	if token != "" {
		httpRequest.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	}

	requestID := ctxutil.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New()
	}
	httpRequest.Header.Set(constants.HeaderXRequestID, requestID)

	return httpRequest, nil
}

// send executes the request and classifies the outcome.
func (client *Client) send(httpRequest *http.Request) (json.RawMessage, error) {
	startTime := time.Now()
	logger := ctxutil.GetLogger(httpRequest.Context())
	if logger == slog.Default() && client.logger != nil {
		logger = client.logger
	}

	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		logger.WarnContext(httpRequest.Context(), "backend_request_failed",
			slog.String("method", httpRequest.Method),
			slog.String("path", httpRequest.URL.Path),
			slog.Any("error", err),
		)
		return nil, apperr.Network(err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))

	logger.DebugContext(httpRequest.Context(), "backend_request_finished",
		slog.String("method", httpRequest.Method),
		slog.String("path", httpRequest.URL.Path),
		slog.Int("status", response.StatusCode),
		slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)

	if err != nil {
		return nil, apperr.Network(fmt.Errorf("backend_read_body_failed: %w", err))
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, classify(response.StatusCode, payload)
	}

	return successPayload(response.Header.Get(constants.HeaderContentType), payload)
}

// successPayload validates a 2xx body.
//
// Empty bodies and non-JSON answers (e.g. a DELETE answered with text) yield a
// nil payload; a body announced as JSON that does not parse is a malformed response.
func successPayload(contentType string, payload []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || !strings.Contains(contentType, "json") {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, apperr.Network(fmt.Errorf("backend: malformed JSON response"))
	}
	return json.RawMessage(trimmed), nil
}

// classify maps a non-2xx answer to the error taxonomy.
func classify(status int, payload []byte) *apperr.AppError {
	message := ServerMessage(payload)

	var classified *apperr.AppError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "Your session has expired. Please sign in again."
		}
		classified = apperr.Auth(message)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if message == "" {
			message = "The request was rejected by the server"
		}
		classified = apperr.ValidationError(message)
	case status == http.StatusNotFound:
		classified = apperr.NotFound("Resource")
		if message != "" {
			classified.Message = message
		}
	case status == http.StatusConflict:
		if message == "" {
			message = "The resource already exists"
		}
		classified = apperr.Conflict(message)
	case status >= 500:
		classified = apperr.Server(fmt.Errorf("backend: status %d: %s", status, message))
	default:
		if message == "" {
			message = fmt.Sprintf("HTTP error! status: %d", status)
		}
		classified = apperr.ValidationError(message)
	}

	return classified.WithUpstream(status)
}

// ServerMessage extracts the human-readable message from an error body.
//
// JSON objects yield their "message" or "error" field; anything else yields the
// trimmed body text.
func ServerMessage(payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return ""
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if envelope.Message != "" {
				return envelope.Message
			}
			if envelope.Error != "" {
				return envelope.Error
			}
		}
	}

	return string(trimmed)
}
