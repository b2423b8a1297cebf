// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/shopie/internal/platform/middleware"
	requestutil "github.com/taibuivan/shopie/internal/platform/request"
	"github.com/taibuivan/shopie/internal/platform/respond"
	"github.com/taibuivan/shopie/internal/platform/sec"
	"github.com/taibuivan/shopie/internal/platform/validate"
)

// Handler implements the order endpoints.
type Handler struct {
	service *Service
	roles   middleware.RoleSource
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, roles middleware.RoleSource) *Handler {
	return &Handler{service: service, roles: roles}
}

// Routes returns a [chi.Router] with the order endpoints.
//
// # Endpoints
//   - GET  /                         : The user's orders.
//   - POST /                         : Checkout.
//   - GET  /{orderID}                : One order.
//   - GET  /admin?status=            : Every order, optionally by status (admin).
//   - PUT  /admin/{orderID}/status   : Move an order (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Post("/", handler.checkout)
	router.Get("/{orderID}", handler.get)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(handler.roles, sec.RoleAdmin))
		r.Get("/admin", handler.adminList)
		r.Put("/admin/{orderID}/status", handler.updateStatus)
	})

	return router
}

type statusInput struct {
	Status Status `json:"status"`
}

/*
POST /api/v1/orders

Request:
  - Body: CheckoutInput (Method: CARTE | ESPECES, optional Delivery)

Response:
  - 201: Order
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) checkout(writer http.ResponseWriter, request *http.Request) {
	var input CheckoutInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	placed, err := handler.service.Checkout(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, placed)
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	orders, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, orders)
}

func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "orderID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	found, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

func (handler *Handler) adminList(writer http.ResponseWriter, request *http.Request) {
	var (
		orders []Order
		err    error
	)

	if status := request.URL.Query().Get("status"); status != "" {
		orders, err = handler.service.ByStatus(request.Context(), Status(status))
	} else {
		orders, err = handler.service.All(request.Context())
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, orders)
}

func (handler *Handler) updateStatus(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, "orderID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input statusInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	updated, err := handler.service.UpdateStatus(request.Context(), id, input.Status)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}
