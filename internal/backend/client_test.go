// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backend_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/apperr"
)

func newClient(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return backend.NewClient(server.URL+"/api", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

/*
TestDo_StatusClassification maps every status family to its error kind.
*/
func TestDo_StatusClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, "", apperr.CodeAuth, ""},
		{"forbidden", http.StatusForbidden, `{"message":"Accès refusé"}`, apperr.CodeAuth, "Accès refusé"},
		{"bad_request_text", http.StatusBadRequest, "Stock insuffisant pour le produit", apperr.CodeValidation, "Stock insuffisant pour le produit"},
		{"unprocessable_json", http.StatusUnprocessableEntity, `{"error":"Quantité invalide"}`, apperr.CodeValidation, "Quantité invalide"},
		{"not_found", http.StatusNotFound, "", apperr.CodeNotFound, ""},
		{"conflict", http.StatusConflict, "Email déjà utilisé", apperr.CodeConflict, "Email déjà utilisé"},
		{"server", http.StatusInternalServerError, "NullPointerException", apperr.CodeServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(writer http.ResponseWriter, _ *http.Request) {
				writer.WriteHeader(tt.status)
				_, _ = writer.Write([]byte(tt.body))
			})

			_, err := client.Do(context.Background(), backend.Request{Path: "/cart"}, "tok")
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, tt.code, ae.Code)
			assert.Equal(t, tt.status, ae.UpstreamStatus)
			if tt.message != "" {
				assert.Equal(t, tt.message, ae.Message)
			}
		})
	}
}

/*
TestDo_RequestShape checks URL, query, bearer header and JSON body.
*/
func TestDo_RequestShape(t *testing.T) {
	var (
		gotPath, gotQuery, gotAuth, gotType, gotBody string
	)
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		gotPath = request.URL.Path
		gotQuery = request.URL.RawQuery
		gotAuth = request.Header.Get("Authorization")
		gotType = request.Header.Get("Content-Type")
		raw, _ := io.ReadAll(request.Body)
		gotBody = string(raw)
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"id":7}`))
	})

	payload, err := client.Do(context.Background(), backend.Request{
		Method: http.MethodPost,
		Path:   "/cart/items",
		Query:  url.Values{"source": {"app"}},
		Body:   map[string]any{"productId": 3, "quantite": 2},
	}, "secret")

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(payload))
	assert.Equal(t, "/api/cart/items", gotPath)
	assert.Equal(t, "source=app", gotQuery)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"productId":3,"quantite":2}`, gotBody)
}

/*
TestDo_EmptyAndNonJSONSuccess returns a nil payload like the original {} fallback.
*/
func TestDo_EmptyAndNonJSONSuccess(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/api/text" {
			writer.Header().Set("Content-Type", "text/plain")
			_, _ = writer.Write([]byte("deleted"))
			return
		}
		writer.WriteHeader(http.StatusNoContent)
	})

	payload, err := client.Do(context.Background(), backend.Request{Method: http.MethodDelete, Path: "/cart"}, "tok")
	require.NoError(t, err)
	assert.Nil(t, payload)

	payload, err = client.Do(context.Background(), backend.Request{Path: "/text"}, "")
	require.NoError(t, err)
	assert.Nil(t, payload)
}

/*
TestDo_NetworkFailures covers refused connections and malformed JSON.
*/
func TestDo_NetworkFailures(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := backend.NewClient(server.URL, time.Second, slog.Default())

	_, err := client.Do(context.Background(), backend.Request{Path: "/cart"}, "tok")
	assert.True(t, apperr.IsNetwork(err))

	malformed := newClient(t, func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"items":[`))
	})
	_, err = malformed.Do(context.Background(), backend.Request{Path: "/cart"}, "tok")
	assert.True(t, apperr.IsNetwork(err))
}

/*
TestUpload sends the file as multipart form field "file".
*/
func TestUpload(t *testing.T) {
	client := newClient(t, func(writer http.ResponseWriter, request *http.Request) {
		file, header, err := request.FormFile("file")
		if err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"filename":"` + header.Filename + `","size":"` + string(rune('0'+len(content))) + `"}`))
	})

	payload, err := client.Upload(context.Background(), "/images/upload", backend.FilePart{
		Filename: "casque.jpg",
		Content:  strings.NewReader("jpeg"),
	}, "tok")

	require.NoError(t, err)
	assert.JSONEq(t, `{"filename":"casque.jpg","size":"4"}`, string(payload))
}

/*
TestDecode reports malformed payloads as network errors.
*/
func TestDecode(t *testing.T) {
	type line struct {
		ID int64 `json:"id"`
	}

	got, err := backend.Decode[line]([]byte(`{"id":4}`))
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.ID)

	zero, err := backend.Decode[line](nil)
	require.NoError(t, err)
	assert.Zero(t, zero)

	_, err = backend.Decode[line]([]byte(`[1,2]`))
	assert.True(t, apperr.IsNetwork(err))
}
