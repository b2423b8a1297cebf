// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package order

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/taibuivan/shopie/internal/backend"
	"github.com/taibuivan/shopie/internal/platform/apperr"
	"github.com/taibuivan/shopie/internal/platform/validate"
	"github.com/taibuivan/shopie/internal/profile"
	"github.com/taibuivan/shopie/internal/session"
)

const (
	pathOrders      = "/orders"
	pathAdminAll    = "/orders/admin/all"
	pathAdminStatus = "/orders/admin/status"
	pathAdmin       = "/orders/admin"
)

// # Collaborators

// Requester sends calls with the session's credential.
type Requester interface {
	AuthenticatedRequest(ctx context.Context, req backend.Request) (json.RawMessage, error)
	Current() session.Session
}

// CartRefresher reloads the cart after checkout.
type CartRefresher interface {
	Refresh(ctx context.Context) error
}

// ProfileUpdater records delivery details before checkout.
type ProfileUpdater interface {
	Update(ctx context.Context, update profile.Update) (profile.Profile, error)
}

// Service places and reads orders.
type Service struct {
	requester Requester
	cart      CartRefresher
	profiles  ProfileUpdater
	logger    *slog.Logger
}

// NewService constructs an order [Service].
func NewService(requester Requester, cart CartRefresher, profiles ProfileUpdater, logger *slog.Logger) *Service {
	return &Service{requester: requester, cart: cart, profiles: profiles, logger: logger}
}

// # Checkout

// CheckoutInput is the customer's checkout choice.
type CheckoutInput struct {
	Method PaymentMethod `json:"method"`
	// Delivery, when set, updates the profile first. Its failure never blocks the order.
	Delivery *profile.Update `json:"delivery,omitempty"`
}

/*
Checkout places an order for the current cart.

Description: Sends POST /orders?methodePaiement=<method> with no body; the
backend computes the total from its cart and empties it. The local cart is
then refreshed.

Returns:
  - Order: The placed order
  - error: VALIDATION_ERROR (unknown method, backend refusal such as stock), or backend failures
*/
func (service *Service) Checkout(ctx context.Context, input CheckoutInput) (Order, error) {
	err := (&validate.Validator{}).
		OneOf("method", string(input.Method), string(PaymentCard), string(PaymentCash)).
		Err()
	if err != nil {
		return Order{}, err
	}

	// ── 1. Delivery details (best effort) ─────────────────────────────────

	if input.Delivery != nil {
		if _, err := service.profiles.Update(ctx, *input.Delivery); err != nil {
			if apperr.IsAuth(err) {
				return Order{}, err
			}
			service.logger.WarnContext(ctx, "checkout_profile_update_failed", slog.String("reason", apperr.Reason(err)))
		}
	}

	// ── 2. Place the order ────────────────────────────────────────────────

	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodPost,
		Path:   pathOrders,
		Query:  url.Values{"methodePaiement": {string(input.Method)}},
	})
	if err != nil {
		return Order{}, err
	}

	placed, err := backend.Decode[Order](payload)
	if err != nil {
		return Order{}, err
	}
	if placed.ID == 0 {
		return Order{}, apperr.Network(errors.New("order: checkout answered without an order id"))
	}

	// ── 3. The backend emptied the cart ───────────────────────────────────

	if err := service.cart.Refresh(ctx); err != nil {
		service.logger.WarnContext(ctx, "checkout_cart_refresh_failed", slog.String("reason", apperr.Reason(err)))
	}

	service.logger.InfoContext(ctx, "order_placed",
		slog.Int64("order_id", placed.ID),
		slog.String("method", string(input.Method)),
		slog.Float64("total", placed.Total),
	)

	return placed, nil
}

// # Reads

// List returns the signed-in user's orders.
func (service *Service) List(ctx context.Context) ([]Order, error) {
	return service.list(ctx, pathOrders)
}

// Get returns one of the signed-in user's orders.
func (service *Service) Get(ctx context.Context, id int64) (Order, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodGet,
		Path:   pathOrders + "/" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		return Order{}, err
	}
	return backend.Decode[Order](payload)
}

// # Administration

// All returns every order. Administrators only.
func (service *Service) All(ctx context.Context) ([]Order, error) {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return nil, err
	}
	return service.list(ctx, pathAdminAll)
}

// ByStatus returns the orders in one status. Administrators only.
func (service *Service) ByStatus(ctx context.Context, status Status) ([]Order, error) {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return nil, err
	}
	if err := validateStatus(status); err != nil {
		return nil, err
	}
	return service.list(ctx, pathAdminStatus+"/"+string(status))
}

// UpdateStatus moves an order to status. Administrators only.
//
// Which transitions are allowed is decided by the backend.
func (service *Service) UpdateStatus(ctx context.Context, id int64, status Status) (Order, error) {
	if err := service.requester.Current().RequireAdmin(); err != nil {
		return Order{}, err
	}
	if err := validateStatus(status); err != nil {
		return Order{}, err
	}

	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{
		Method: http.MethodPut,
		Path:   pathAdmin + "/" + strconv.FormatInt(id, 10) + "/status",
		Query:  url.Values{"statut": {string(status)}},
	})
	if err != nil {
		return Order{}, err
	}

	service.logger.InfoContext(ctx, "order_status_updated", slog.Int64("order_id", id), slog.String("status", string(status)))
	return backend.Decode[Order](payload)
}

func (service *Service) list(ctx context.Context, path string) ([]Order, error) {
	payload, err := service.requester.AuthenticatedRequest(ctx, backend.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	orders, err := backend.Decode[[]Order](payload)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

func validateStatus(status Status) error {
	return (&validate.Validator{}).OneOf("status", string(status), Statuses...).Err()
}
