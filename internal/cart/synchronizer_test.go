// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cart_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/cart"
	"github.com/taibuivan/shopie/internal/catalog"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/session"
)

// scriptedBackend records requests and answers them with answer.
type scriptedBackend struct {
	mu       sync.Mutex
	requests []backend.Request
	answer   func(req backend.Request) (json.RawMessage, error)
}

func (s *scriptedBackend) AuthenticatedRequest(_ context.Context, req backend.Request) (json.RawMessage, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	answer := s.answer
	s.mu.Unlock()
	return answer(req)
}

func (s *scriptedBackend) sent() []backend.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]backend.Request(nil), s.requests...)
}

func (s *scriptedBackend) reset(answer func(req backend.Request) (json.RawMessage, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.answer = answer
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func line(id, productID int64, price float64, quantity int) cart.Line {
	return cart.Line{
		ID:       id,
		Product:  catalog.Product{ID: productID, Name: "Produit", Price: price, Stock: 10},
		Quantity: quantity,
	}
}

func cartPayload(t *testing.T, lines ...cart.Line) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"items": lines})
	require.NoError(t, err)
	return raw
}

// loaded returns a synchronizer already holding lines.
func loaded(t *testing.T, lines ...cart.Line) (*cart.Synchronizer, *scriptedBackend) {
	t.Helper()

	fake := &scriptedBackend{}
	fake.answer = func(backend.Request) (json.RawMessage, error) { return cartPayload(t, lines...), nil }

	synchronizer := cart.NewSynchronizer(fake, discardLogger())
	require.NoError(t, synchronizer.Load(context.Background()))
	fake.reset(nil)

	return synchronizer, fake
}

/*
TestAddToCart_SingleLinePerProduct verifies that adding a product already in
the cart is sent as an update of its line, never as a second create.
*/
func TestAddToCart_SingleLinePerProduct(t *testing.T) {
	synchronizer, fake := loaded(t)

	fake.reset(func(req backend.Request) (json.RawMessage, error) {
		if req.Method == http.MethodPost {
			return cartPayload(t, line(11, 5, 2.5, 2)), nil
		}
		return cartPayload(t, line(11, 5, 2.5, 5)), nil
	})

	require.NoError(t, synchronizer.AddToCart(context.Background(), 5, 2))
	require.NoError(t, synchronizer.AddToCart(context.Background(), 5, 3))

	sent := fake.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, http.MethodPost, sent[0].Method)
	assert.Equal(t, "/cart/items", sent[0].Path)
	assert.Equal(t, http.MethodPut, sent[1].Method)
	assert.Equal(t, "/cart/items/11", sent[1].Path)

	body, err := json.Marshal(sent[1].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"quantite":5}`, string(body))

	assert.Equal(t, 1, synchronizer.ItemsCount())
	assert.Equal(t, 5, synchronizer.ProductQuantity(5))
}

/*
TestAddToCart_Preconditions rejects bad input without a network call.
*/
func TestAddToCart_Preconditions(t *testing.T) {
	synchronizer, fake := loaded(t)

	assert.True(t, apperr.HasCode(synchronizer.AddToCart(context.Background(), 5, 0), apperr.CodeValidation))
	assert.True(t, apperr.HasCode(synchronizer.AddToCart(context.Background(), 0, 1), apperr.CodeValidation))
	assert.Empty(t, fake.sent())
}

/*
TestUpdateCartItem_NonPositiveRoutesToRemove verifies that q <= 0 behaves
exactly like RemoveFromCart.
*/
func TestUpdateCartItem_NonPositiveRoutesToRemove(t *testing.T) {
	for _, quantity := range []int{0, -3} {
		updated, updateFake := loaded(t, line(11, 5, 2.5, 2), line(12, 6, 1, 1))
		removed, removeFake := loaded(t, line(11, 5, 2.5, 2), line(12, 6, 1, 1))

		answer := func(backend.Request) (json.RawMessage, error) { return cartPayload(t, line(12, 6, 1, 1)), nil }
		updateFake.reset(answer)
		removeFake.reset(answer)

		require.NoError(t, updated.UpdateCartItem(context.Background(), 11, quantity))
		require.NoError(t, removed.RemoveFromCart(context.Background(), 11))

		assert.Equal(t, removeFake.sent(), updateFake.sent())
		assert.Equal(t, http.MethodDelete, updateFake.sent()[0].Method)
		assert.Equal(t, removed.Snapshot().Items, updated.Snapshot().Items)
	}
}

/*
TestLoad_StaleResponseDiscarded issues load A then load B; A completes last
and must not overwrite B.
*/
func TestLoad_StaleResponseDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	fake := &scriptedBackend{}
	calls := 0
	fake.answer = func(backend.Request) (json.RawMessage, error) {
		fake.mu.Lock()
		calls++
		first := calls == 1
		fake.mu.Unlock()

		if first {
			close(entered)
			<-release
			return cartPayload(t, line(1, 100, 9, 9)), nil
		}
		return cartPayload(t, line(2, 200, 1, 1)), nil
	}
	synchronizer := cart.NewSynchronizer(fake, discardLogger())

	done := make(chan error, 1)
	go func() { done <- synchronizer.Load(context.Background()) }()
	<-entered

	require.NoError(t, synchronizer.Load(context.Background()))
	assert.True(t, synchronizer.Snapshot().Loading)

	close(release)
	require.NoError(t, <-done)

	snapshot := synchronizer.Snapshot()
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, int64(200), snapshot.Items[0].Product.ID)
	assert.Equal(t, uint64(2), snapshot.LastSyncedAt)
	assert.False(t, snapshot.Loading)
}

/*
TestRemoveFromCart_FailureLeavesItems verifies that a failed mutation keeps
the committed lines and surfaces a reason.
*/
func TestRemoveFromCart_FailureLeavesItems(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2), line(12, 6, 1, 1))
	before := synchronizer.Snapshot()

	fake.reset(func(backend.Request) (json.RawMessage, error) {
		return nil, apperr.Network(errors.New("connection refused"))
	})

	err := synchronizer.RemoveFromCart(context.Background(), 11)
	assert.True(t, apperr.IsNetwork(err))
	assert.NotEmpty(t, apperr.Reason(err))
	assert.Equal(t, before.Items, synchronizer.Snapshot().Items)

	fake.reset(func(backend.Request) (json.RawMessage, error) {
		return nil, apperr.ValidationError("Stock insuffisant")
	})
	err = synchronizer.UpdateCartItem(context.Background(), 12, 50)
	assert.Equal(t, "Stock insuffisant", apperr.Reason(err))
	assert.Equal(t, before.Items, synchronizer.Snapshot().Items)
}

/*
TestQueries covers the synchronous derived values.
*/
func TestQueries(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2), line(12, 6, 10, 3))

	found, ok := synchronizer.IsProductInCart(6)
	assert.True(t, ok)
	assert.Equal(t, int64(12), found.ID)

	_, ok = synchronizer.IsProductInCart(99)
	assert.False(t, ok)

	assert.Equal(t, 0, synchronizer.ProductQuantity(99))
	assert.Equal(t, 2, synchronizer.ItemsCount())
	assert.InDelta(t, 35.0, synchronizer.Total(), 1e-9)
	assert.InDelta(t, 35.0, synchronizer.Snapshot().Total(), 1e-9)
	assert.Empty(t, fake.sent())
}

/*
TestClearCart_SingleCall verifies one DELETE /cart, with an empty answer
applied as an empty cart.
*/
func TestClearCart_SingleCall(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2), line(12, 6, 1, 1), line(13, 7, 1, 1))

	fake.reset(func(backend.Request) (json.RawMessage, error) { return nil, nil })

	require.NoError(t, synchronizer.ClearCart(context.Background()))

	sent := fake.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, http.MethodDelete, sent[0].Method)
	assert.Equal(t, "/cart", sent[0].Path)
	assert.Equal(t, 0, synchronizer.ItemsCount())
}

/*
TestMutation_EmptyAnswerReloads verifies the follow-up load after a mutation
that answered without a cart.
*/
func TestMutation_EmptyAnswerReloads(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2))

	fake.reset(func(req backend.Request) (json.RawMessage, error) {
		if req.Method == http.MethodGet {
			return json.RawMessage(`[]`), nil
		}
		return nil, nil
	})

	require.NoError(t, synchronizer.RemoveFromCart(context.Background(), 11))

	sent := fake.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, http.MethodGet, sent[1].Method)
	assert.Equal(t, 0, synchronizer.ItemsCount())
}

/*
TestRemoveProductFromCart resolves the line locally.
*/
func TestRemoveProductFromCart(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2))

	err := synchronizer.RemoveProductFromCart(context.Background(), 99)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Empty(t, fake.sent())

	fake.reset(func(backend.Request) (json.RawMessage, error) { return cartPayload(t), nil })
	require.NoError(t, synchronizer.RemoveProductFromCart(context.Background(), 5))
	assert.Equal(t, "/cart/items/11", fake.sent()[0].Path)
}

/*
TestHandleSession_DiscardsCartAndInFlightResponses verifies that signing out
empties the cart and drops a response still in flight for the old session.
*/
func TestHandleSession_DiscardsCartAndInFlightResponses(t *testing.T) {
	synchronizer, fake := loaded(t)
	synchronizer.HandleSession(session.Session{
		Token:  "t",
		User:   &session.User{ID: 7},
		Status: session.StatusAuthenticated,
	})
	fake.reset(func(backend.Request) (json.RawMessage, error) { return cartPayload(t, line(11, 5, 2.5, 2)), nil })
	require.NoError(t, synchronizer.Load(context.Background()))
	require.Equal(t, 1, synchronizer.ItemsCount())

	entered := make(chan struct{})
	release := make(chan struct{})
	fake.reset(func(backend.Request) (json.RawMessage, error) {
		close(entered)
		<-release
		return cartPayload(t, line(11, 5, 2.5, 4)), nil
	})

	done := make(chan error, 1)
	go func() { done <- synchronizer.Load(context.Background()) }()
	<-entered

	synchronizer.HandleSession(session.Session{Status: session.StatusUnauthenticated})
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 0, synchronizer.ItemsCount())
	assert.Zero(t, synchronizer.Total())
}

// quantityOf reads the quantite field of a mutation body.
func quantityOf(t *testing.T, req backend.Request) int {
	t.Helper()
	raw, err := json.Marshal(req.Body)
	require.NoError(t, err)
	var body struct {
		Quantity int `json:"quantite"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Quantity
}

/*
TestAddToCart_ConcurrentAddsOnOneLine verifies that two adds of a product
already in the cart are sent one after the other, each from the quantity the
previous one committed.
*/
func TestAddToCart_ConcurrentAddsOnOneLine(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2))

	entered := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once
	fake.reset(func(req backend.Request) (json.RawMessage, error) {
		first.Do(func() {
			close(entered)
			<-release
		})
		return cartPayload(t, line(11, 5, 2.5, quantityOf(t, req))), nil
	})

	errs := make(chan error, 2)
	go func() { errs <- synchronizer.AddToCart(context.Background(), 5, 1) }()
	<-entered
	go func() { errs <- synchronizer.AddToCart(context.Background(), 5, 1) }()

	assert.Never(t, func() bool { return len(fake.sent()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	sent := fake.sent()
	require.Len(t, sent, 2)
	for _, req := range sent {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/cart/items/11", req.Path)
	}
	assert.Equal(t, 3, quantityOf(t, sent[0]))
	assert.Equal(t, 4, quantityOf(t, sent[1]))
	assert.Equal(t, 4, synchronizer.ProductQuantity(5))
}

/*
TestAddToCart_ConcurrentAddsOfNewProduct verifies that two adds of a product
not yet in the cart create one line and then update it.
*/
func TestAddToCart_ConcurrentAddsOfNewProduct(t *testing.T) {
	synchronizer, fake := loaded(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once
	fake.reset(func(req backend.Request) (json.RawMessage, error) {
		first.Do(func() {
			close(entered)
			<-release
		})
		return cartPayload(t, line(13, 7, 4, quantityOf(t, req))), nil
	})

	errs := make(chan error, 2)
	go func() { errs <- synchronizer.AddToCart(context.Background(), 7, 1) }()
	<-entered
	go func() { errs <- synchronizer.AddToCart(context.Background(), 7, 1) }()

	assert.Never(t, func() bool { return len(fake.sent()) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	close(release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	sent := fake.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, http.MethodPost, sent[0].Method)
	assert.Equal(t, http.MethodPut, sent[1].Method)
	assert.Equal(t, "/cart/items/13", sent[1].Path)
	assert.Equal(t, 2, quantityOf(t, sent[1]))
	assert.Equal(t, 1, synchronizer.ItemsCount())
	assert.Equal(t, 2, synchronizer.ProductQuantity(7))
}

/*
TestMutation_AnswerWithoutItemsReloads verifies that an answer carrying the
created line instead of the cart is followed by a load, never committed as an
empty cart.
*/
func TestMutation_AnswerWithoutItemsReloads(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2), line(12, 6, 1, 1))

	fake.reset(func(req backend.Request) (json.RawMessage, error) {
		if req.Method == http.MethodGet {
			return cartPayload(t, line(11, 5, 2.5, 2), line(12, 6, 1, 1), line(13, 7, 4, 1)), nil
		}
		return json.RawMessage(`{"id":13,"product":{"id":7,"nom":"Pomme","prix":4,"stock":3},"quantite":1}`), nil
	})

	require.NoError(t, synchronizer.AddToCart(context.Background(), 7, 1))

	sent := fake.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, http.MethodPost, sent[0].Method)
	assert.Equal(t, http.MethodGet, sent[1].Method)
	assert.Equal(t, 3, synchronizer.ItemsCount())
	assert.Equal(t, 1, synchronizer.ProductQuantity(7))
}

/*
TestLoad_AnswerWithoutItemsFails keeps the lines when the cart endpoint
answers with something other than a cart.
*/
func TestLoad_AnswerWithoutItemsFails(t *testing.T) {
	synchronizer, fake := loaded(t, line(11, 5, 2.5, 2))

	fake.reset(func(backend.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"message":"ok"}`), nil
	})

	err := synchronizer.Load(context.Background())
	assert.True(t, apperr.IsNetwork(err))
	assert.Equal(t, 1, synchronizer.ItemsCount())
}

/*
TestMutation_SupersededAnswerReloads verifies that an accepted add still
reaches the local lines when a refresh issued during it fails.
*/
func TestMutation_SupersededAnswerReloads(t *testing.T) {
	synchronizer, fake := loaded(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var gets sync.Mutex
	getCalls := 0
	fake.reset(func(req backend.Request) (json.RawMessage, error) {
		if req.Method == http.MethodPost {
			close(entered)
			<-release
			return cartPayload(t, line(13, 7, 4, 1)), nil
		}

		gets.Lock()
		getCalls++
		call := getCalls
		gets.Unlock()
		if call == 1 {
			return nil, apperr.Network(errors.New("connection reset"))
		}
		return cartPayload(t, line(13, 7, 4, 1)), nil
	})

	done := make(chan error, 1)
	go func() { done <- synchronizer.AddToCart(context.Background(), 7, 1) }()
	<-entered

	assert.True(t, apperr.IsNetwork(synchronizer.Refresh(context.Background())))
	close(release)
	require.NoError(t, <-done)

	sent := fake.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, http.MethodGet, sent[2].Method)
	assert.Equal(t, 1, synchronizer.ProductQuantity(7))
	assert.False(t, synchronizer.Snapshot().Loading)
}
