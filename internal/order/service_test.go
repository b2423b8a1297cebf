// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package order_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/order"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/profile"
	"github.com/taibuivan/shopie/internal/session"
)

type fakeRequester struct {
	role     sec.Role
	requests []backend.Request
	answer   json.RawMessage
	err      error
}

func (f *fakeRequester) AuthenticatedRequest(_ context.Context, req backend.Request) (json.RawMessage, error) {
	f.requests = append(f.requests, req)
	return f.answer, f.err
}

func (f *fakeRequester) Current() session.Session {
	return session.Session{Token: "t", User: &session.User{ID: 1, Role: f.role}, Status: session.StatusAuthenticated}
}

type fakeCart struct{ refreshes int }

func (f *fakeCart) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

type fakeProfiles struct {
	updates []profile.Update
	err     error
}

func (f *fakeProfiles) Update(_ context.Context, update profile.Update) (profile.Profile, error) {
	f.updates = append(f.updates, update)
	return profile.Profile{}, f.err
}

type fixture struct {
	service   *order.Service
	requester *fakeRequester
	cart      *fakeCart
	profiles  *fakeProfiles
}

func newFixture(role sec.Role, answer string) *fixture {
	f := &fixture{
		requester: &fakeRequester{role: role, answer: json.RawMessage(answer)},
		cart:      &fakeCart{},
		profiles:  &fakeProfiles{},
	}
	f.service = order.NewService(f.requester, f.cart, f.profiles, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

const placedOrder = `{"id":42,"total":35.0,"date":"2026-10-15T10:00:00","statut":"PENDING","methodePaiement":"CARTE","orderItems":[{"id":1,"productName":"Banane","quantite":2,"prix":2.5}]}`

/*
TestCheckout_SendsOnlyPaymentMethod verifies that no total or cart content is
sent and that the cart is refreshed afterwards.
*/
func TestCheckout_SendsOnlyPaymentMethod(t *testing.T) {
	f := newFixture(sec.RoleCustomer, placedOrder)

	placed, err := f.service.Checkout(context.Background(), order.CheckoutInput{Method: order.PaymentCard})
	require.NoError(t, err)

	assert.Equal(t, int64(42), placed.ID)
	assert.Equal(t, order.StatusPending, placed.Status)
	require.Len(t, placed.Items, 1)

	require.Len(t, f.requester.requests, 1)
	sent := f.requester.requests[0]
	assert.Equal(t, http.MethodPost, sent.Method)
	assert.Equal(t, "/orders", sent.Path)
	assert.Equal(t, "CARTE", sent.Query.Get("methodePaiement"))
	assert.Len(t, sent.Query, 1)
	assert.Nil(t, sent.Body)

	assert.Equal(t, 1, f.cart.refreshes)
	assert.Empty(t, f.profiles.updates)
}

/*
TestCheckout_ProfileFailureDoesNotBlock mirrors the best-effort delivery update.
*/
func TestCheckout_ProfileFailureDoesNotBlock(t *testing.T) {
	f := newFixture(sec.RoleCustomer, placedOrder)
	f.profiles.err = apperr.ValidationError("Le téléphone ne doit pas dépasser 15 caractères")

	delivery := &profile.Update{Phone: "0600000000", Address: "1 rue de Paris"}
	_, err := f.service.Checkout(context.Background(), order.CheckoutInput{Method: order.PaymentCash, Delivery: delivery})
	require.NoError(t, err)

	assert.Equal(t, []profile.Update{*delivery}, f.profiles.updates)
	assert.Equal(t, "ESPECES", f.requester.requests[0].Query.Get("methodePaiement"))
}

/*
TestCheckout_Failures covers local validation and unusable answers.
*/
func TestCheckout_Failures(t *testing.T) {
	t.Run("unknown_method", func(t *testing.T) {
		f := newFixture(sec.RoleCustomer, placedOrder)
		_, err := f.service.Checkout(context.Background(), order.CheckoutInput{Method: "PAYPAL"})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		assert.Empty(t, f.requester.requests)
	})

	t.Run("answer_without_id", func(t *testing.T) {
		f := newFixture(sec.RoleCustomer, `{}`)
		_, err := f.service.Checkout(context.Background(), order.CheckoutInput{Method: order.PaymentCard})
		assert.True(t, apperr.IsNetwork(err))
		assert.Zero(t, f.cart.refreshes)
	})

	t.Run("backend_refusal", func(t *testing.T) {
		f := newFixture(sec.RoleCustomer, "")
		f.requester.err = apperr.ValidationError("Le panier est vide")
		_, err := f.service.Checkout(context.Background(), order.CheckoutInput{Method: order.PaymentCard})
		assert.Equal(t, "Le panier est vide", apperr.Reason(err))
		assert.Zero(t, f.cart.refreshes)
	})

	t.Run("delivery_auth_failure_stops", func(t *testing.T) {
		f := newFixture(sec.RoleCustomer, placedOrder)
		f.profiles.err = apperr.Auth("expired")
		_, err := f.service.Checkout(context.Background(), order.CheckoutInput{
			Method:   order.PaymentCard,
			Delivery: &profile.Update{},
		})
		assert.True(t, apperr.IsAuth(err))
		assert.Empty(t, f.requester.requests)
	})
}

/*
TestAdmin covers the local guard and the status update call.
*/
func TestAdmin(t *testing.T) {
	customer := newFixture(sec.RoleCustomer, `[]`)
	_, err := customer.service.All(context.Background())
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.Empty(t, customer.requester.requests)

	admin := newFixture(sec.RoleAdmin, placedOrder)
	_, err = admin.service.UpdateStatus(context.Background(), 42, "LOST")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = admin.service.UpdateStatus(context.Background(), 42, order.StatusShipped)
	require.NoError(t, err)
	sent := admin.requester.requests[0]
	assert.Equal(t, http.MethodPut, sent.Method)
	assert.Equal(t, "/orders/admin/42/status", sent.Path)
	assert.Equal(t, "SHIPPED", sent.Query.Get("statut"))

	admin.requester.answer = json.RawMessage(`[]`)
	orders, err := admin.service.ByStatus(context.Background(), order.StatusPaid)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, "/orders/admin/status/PAID", admin.requester.requests[1].Path)

	admin.requester.err = apperr.Network(errors.New("refused"))
	_, err = admin.service.List(context.Background())
	assert.True(t, apperr.IsNetwork(err))
}
