// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/cart"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/session"
)

func writeJSON(writer http.ResponseWriter, status int, payload any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}

/*
TestAuthFailure_CascadesToCart drives the cart through a real manager: a 401
on a cart mutation signs the agent out and the cart is discarded with it.
*/
func TestAuthFailure_CascadesToCart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{
			"token": "token-alice",
			"user":  session.User{ID: 7, Name: "Alice", Email: "alice@shopie.test", Role: sec.RoleCustomer},
		})
	})
	mux.HandleFunc("GET /cart", func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "Bearer token-alice", request.Header.Get("Authorization"))
		writeJSON(writer, http.StatusOK, []cart.Line{line(11, 5, 2.5, 2)})
	})
	mux.HandleFunc("DELETE /cart/items/11", func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	manager := session.NewManager(
		backend.NewClient(server.URL, 2*time.Second, discardLogger()),
		session.NewMemoryStore(),
		discardLogger(),
	)
	synchronizer := cart.NewSynchronizer(manager, discardLogger())
	manager.OnChange(synchronizer.HandleSession)

	ctx := context.Background()
	_, err := manager.Login(ctx, "alice@shopie.test", "secret")
	require.NoError(t, err)
	require.NoError(t, synchronizer.Load(ctx))
	require.Equal(t, 1, synchronizer.ItemsCount())

	err = synchronizer.RemoveFromCart(ctx, 11)
	assert.True(t, apperr.IsAuth(err))

	current := manager.Current()
	assert.Equal(t, session.StatusUnauthenticated, current.Status)
	assert.Empty(t, current.Token)
	assert.Equal(t, 0, synchronizer.ItemsCount())

	err = synchronizer.Load(ctx)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotAuthenticated))
}
